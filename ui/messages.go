package ui

import (
	"chatcli/commands"
	"chatcli/engine"
)

// bridgeMsg wraps an event read from the Bridge so the listener can be
// re-armed after it is handled.
type bridgeMsg struct {
	inner any
}

type chunkMsg struct {
	text   string
	tokens int
}

type logChangedMsg struct{}

// CommandsReloadedMsg is sent by the commands directory watcher.
type CommandsReloadedMsg struct {
	Loaded int
	Errs   []error
}

type turnDoneMsg struct {
	out engine.Outcome
	err error
}

type commandDoneMsg struct {
	input  string
	result commands.Result
	err    error
}

type clipboardMsg struct {
	err error
}
