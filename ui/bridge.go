package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"chatcli/config"
	"chatcli/message"
)

const bridgeBuffer = 256

// Bridge carries engine callbacks into the bubbletea event loop. The engine
// is built before the program, so its callbacks write here and the AppView
// drains the channel one message at a time.
type Bridge struct {
	events chan tea.Msg
}

func NewBridge() *Bridge {
	return &Bridge{events: make(chan tea.Msg, bridgeBuffer)}
}

// OnChunk matches engine.ChunkFunc.
func (b *Bridge) OnChunk(token, accumulated string, estimatedTokens int) {
	b.send(chunkMsg{text: accumulated, tokens: estimatedTokens})
}

// OnChange matches the engine's log observer.
func (b *Bridge) OnChange(entries []message.Message) {
	b.send(logChangedMsg{})
}

// send queues a redraw event without blocking. Redraws read the log
// snapshot, so a dropped event is repaired by the next one.
func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.events <- msg:
	default:
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] bridge full, dropped %T", msg)
		}
	}
}

// Deliver queues msg and waits for room. Use it for events that carry data
// the view cannot rebuild, such as command reload errors.
func (b *Bridge) Deliver(ctx context.Context, msg tea.Msg) error {
	select {
	case b.events <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) listen() tea.Cmd {
	return func() tea.Msg {
		return bridgeMsg{inner: <-b.events}
	}
}
