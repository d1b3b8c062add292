// Package failure defines the structured error taxonomy shared by the
// acquisition orchestrator and the execution controller.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies how an operation failed.
type Kind string

const (
	// NotAttempted means the budget was exhausted before the operation started.
	NotAttempted Kind = "not_attempted"
	// StrategyFailure means a strategy ran but produced no usable page model.
	StrategyFailure Kind = "strategy_failure"
	// StrategyTimeout means a strategy worker exceeded its sub-deadline.
	StrategyTimeout Kind = "strategy_timeout"
	// ExecutionFailure means a script ran and raised an error.
	ExecutionFailure Kind = "execution_failure"
	// ExecutionTimeout means a child process exceeded its wall-clock budget.
	ExecutionTimeout Kind = "execution_timeout"
	// SandboxFailure means the isolated process or backend could not be spawned.
	SandboxFailure Kind = "sandbox_failure"
)

// Failure is a structured, immutable failure record. Reason is the
// concise normalized message; Detail keeps the raw error text for diagnostics.
type Failure struct {
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// New builds a Failure from a raw error, normalizing its message.
func New(kind Kind, err error) *Failure {
	if err == nil {
		return &Failure{Kind: kind, Reason: "unknown error"}
	}
	return &Failure{
		Kind:   kind,
		Reason: Concise(err.Error()),
		Detail: truncate(err.Error(), 500),
	}
}

// Newf builds a Failure with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Failure {
	msg := fmt.Sprintf(format, args...)
	return &Failure{Kind: kind, Reason: Concise(msg), Detail: truncate(msg, 500)}
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

// Is reports whether this failure has the given kind. Nil failures match nothing.
func (f *Failure) Is(kind Kind) bool {
	return f != nil && f.Kind == kind
}

// Is reports whether err is (or wraps) a Failure of the given kind.
func Is(err error, kind Kind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}

// concisePattern maps a known substring in raw error text to a stable,
// human-readable reason.
type concisePattern struct {
	substr string
	reason string
}

// Patterns are checked in order; the first match wins. Substrings cover the
// error text produced by Chrome, net/http, WebDriver-style tooling, and the OS.
var concisePatterns = []concisePattern{
	// DNS and network errors
	{"err_name_not_resolved", "DNS resolution failed"},
	{"no such host", "DNS resolution failed"},
	{"err_internet_disconnected", "internet connection lost"},
	{"err_connection_refused", "connection refused"},
	{"connection refused", "connection refused"},
	{"err_connection_timed_out", "connection timed out"},
	{"connection reset", "connection reset by peer"},

	// Browser specific errors
	{"chrome not reachable", "browser not responding"},
	{"browser not responding", "browser not responding"},
	{"chromedriver", "browser driver not found or invalid"},
	{"executable file not found", "browser binary not found"},
	{"session not created", "browser session creation failed"},
	{"websocket url timeout", "browser did not expose a debugging endpoint"},

	// Timeouts
	{"context deadline exceeded", "operation timeout"},
	{"page load timeout", "page load timeout"},
	{"deadline exceeded", "operation timeout"},
	{"timed out", "operation timeout"},
	{"timeout", "operation timeout"},

	// Permission and filesystem errors
	{"permission denied", "permission denied"},
	{"access denied", "access denied"},
	{"no such file or directory", "required file not found"},
	{"exec format error", "invalid executable format"},
}

// Concise normalizes raw error text to a short stable reason. Unmatched text
// falls back to a truncated first line.
func Concise(raw string) string {
	lower := strings.ToLower(raw)
	for _, p := range concisePatterns {
		if strings.Contains(lower, p.substr) {
			return p.reason
		}
	}

	first := strings.TrimSpace(strings.SplitN(raw, "\n", 2)[0])
	if first == "" {
		return "unknown error"
	}
	return truncate(first, 100)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
