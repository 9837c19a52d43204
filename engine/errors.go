package engine

import (
	"errors"
	"fmt"

	"chatcli/config"
	"chatcli/provider"
	"chatcli/tools"
)

var (
	// ErrBusy is returned when a turn is started while another one is
	// streaming or waiting for approval.
	ErrBusy = errors.New("engine is busy")

	// ErrNoPendingApproval is returned by Resolve when nothing is pending.
	ErrNoPendingApproval = errors.New("no tool call is waiting for approval")

	ErrUnknownTool = tools.ErrUnknownTool
)

// failureText turns an error raised by a model call into the assistant
// message shown in its place.
func failureText(err error, cfg *config.Config) string {
	var argErr *tools.ArgumentError
	switch {
	case provider.IsUnauthorized(err):
		msg := err.Error()
		var apiErr *provider.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return fmt.Sprintf("Unauthorized request. %s or set your $%s.", msg, apiKeyEnv(cfg))
	case errors.As(err, &argErr):
		return argErr.Error()
	default:
		return fmt.Sprintf("Unknown error: %v", err)
	}
}

func apiKeyEnv(cfg *config.Config) string {
	if cfg != nil {
		if env := config.ProviderAPIKeyEnv(cfg.Provider); env != "" {
			return env
		}
	}
	return "OPENROUTER_API_KEY"
}

// toolFailureText is the notice logged when a call cannot be dispatched.
func toolFailureText(err error) string {
	return fmt.Sprintf("Tool execution failed: %v", err)
}
