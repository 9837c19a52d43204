package engine

import (
	"sync"

	"chatcli/tools"
)

// DefaultGatedTools always require approval unless auto-accept is on.
var DefaultGatedTools = []string{"Bash", "WriteFile", "UpdateFile"}

// Decision answers a pending approval.
type Decision int

const (
	Accept Decision = iota
	AcceptAndEnableAuto
	Decline
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case AcceptAndEnableAuto:
		return "accept-auto"
	case Decline:
		return "decline"
	default:
		return "unknown"
	}
}

// Gate decides which tool calls need a human decision. Auto-accept belongs
// to the gate, so it lasts as long as the top-level engine that owns it.
type Gate struct {
	mu        sync.RWMutex
	registry  *tools.Registry
	sensitive map[string]bool
	auto      bool
}

// NewGate gates DefaultGatedTools, extra, and every tool r marks sensitive.
// r may be nil.
func NewGate(r *tools.Registry, extra ...string) *Gate {
	g := &Gate{registry: r, sensitive: make(map[string]bool)}
	g.Flag(DefaultGatedTools...)
	g.Flag(extra...)
	return g
}

// Flag adds names to the gated set.
func (g *Gate) Flag(names ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range names {
		if n != "" {
			g.sensitive[n] = true
		}
	}
}

// IsGated reports whether a call to name must wait for approval.
func (g *Gate) IsGated(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.auto {
		return false
	}
	if g.sensitive[name] {
		return true
	}
	return g.registry != nil && g.registry.IsSensitive(name)
}

func (g *Gate) AutoAccept() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.auto
}

func (g *Gate) SetAutoAccept(on bool) {
	g.mu.Lock()
	g.auto = on
	g.mu.Unlock()
}

// ToggleAutoAccept flips auto-accept and returns the new value.
func (g *Gate) ToggleAutoAccept() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.auto = !g.auto
	return g.auto
}
