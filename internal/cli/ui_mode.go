package cli

import (
	"fmt"
	"io"
	"strings"

	"stepgrade/internal/verbose"
)

// UI modes accepted by --ui.
const (
	uiAuto  = "auto"
	uiLive  = "live"
	uiPlain = "plain"
)

type uiModeDecision struct {
	useLive bool
	warning string
}

// isTerminal is swapped in tests.
var isTerminal = verbose.IsTerminal

// resolveUIMode decides between the live view and plain progress lines.
// Verbose output always uses plain lines so log lines are not overdrawn.
func resolveUIMode(mode string, verboseOutput bool, stdout io.Writer) (uiModeDecision, error) {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == "" {
		normalized = uiAuto
	}
	switch normalized {
	case uiAuto, uiLive, uiPlain:
	default:
		return uiModeDecision{}, fmt.Errorf("invalid ui mode %q (expected auto|live|plain)", mode)
	}
	if verboseOutput || normalized == uiPlain {
		return uiModeDecision{}, nil
	}
	if isTerminal(stdout) {
		return uiModeDecision{useLive: true}, nil
	}
	if normalized == uiLive {
		return uiModeDecision{warning: "Live UI requested but stdout is not a TTY; falling back to plain output."}, nil
	}
	return uiModeDecision{}, nil
}
