// Package guard bounds tool results before they reach the model loop.
//
// A governed call always returns a bounded-size, self-describing string:
// execution failures and oversized results degrade to a parseable diagnostic
// payload instead of an error. Callers never need their own recover.
package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/chatwing/chatwing/internal/llm/tokens"
	"github.com/chatwing/chatwing/types"
)

// DefaultMaxChars bounds a single tool result when no override is configured.
// 160k characters is roughly 40k tokens at the estimator's ratio, comfortably
// under half of a typical model's context budget.
const DefaultMaxChars = 160_000

// sampleLen is how much of an offending payload gets logged for diagnosis.
const sampleLen = 120

// InvokeFunc is the raw tool invocation being governed.
type InvokeFunc func(ctx context.Context, args map[string]any) (any, error)

// GovernedFunc is the only shape the chat loop consumes: it always returns a
// string and never fails.
type GovernedFunc func(ctx context.Context, args map[string]any) string

// LimitConfig holds the global default and per-tool character limits.
type LimitConfig struct {
	DefaultMaxChars int
	PerTool         map[string]int
}

// Governor wraps tool invocations so their output is size-checked and
// serialized before being handed back to the model loop.
// Safe for concurrent use; limits may be swapped while calls are in flight.
type Governor struct {
	mu             sync.RWMutex
	limits         LimitConfig
	logger         *slog.Logger
	onSizeExceeded func(tool string, returnedChars, maxChars int)
}

// New validates limits and returns a Governor. A zero DefaultMaxChars selects
// the built-in default; a negative one, or any non-positive per-tool override,
// is rejected outright. A zero limit would make the governor unusable, so it
// must not survive configuration.
func New(limits LimitConfig) (*Governor, error) {
	if limits.DefaultMaxChars < 0 {
		return nil, fmt.Errorf("default size limit must be positive, got %d", limits.DefaultMaxChars)
	}
	if limits.DefaultMaxChars == 0 {
		limits.DefaultMaxChars = DefaultMaxChars
	}
	for tool, max := range limits.PerTool {
		if max <= 0 {
			return nil, fmt.Errorf("size limit for tool %q must be positive, got %d", tool, max)
		}
	}
	return &Governor{limits: limits, logger: slog.Default()}, nil
}

// SetLogger replaces the structured logger used for failure records.
func (g *Governor) SetLogger(l *slog.Logger) {
	if l != nil {
		g.logger = l
	}
}

// SetOnSizeExceeded registers a callback fired whenever an oversized result is
// discarded. The callback receives measurements only, never the payload.
func (g *Governor) SetOnSizeExceeded(fn func(tool string, returnedChars, maxChars int)) {
	g.mu.Lock()
	g.onSizeExceeded = fn
	g.mu.Unlock()
}

// UpdateLimits swaps in a new validated limit set (config hot reload).
func (g *Governor) UpdateLimits(limits LimitConfig) error {
	next, err := New(limits)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.limits = next.limits
	g.mu.Unlock()
	return nil
}

// LimitFor returns the effective character limit for a tool.
func (g *Governor) LimitFor(tool string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if max, ok := g.limits.PerTool[tool]; ok {
		return max
	}
	return g.limits.DefaultMaxChars
}

// Wrap turns a raw invocation into a governed one. The governed function:
//   - never panics and never returns an error;
//   - returns the serialized result unchanged when it fits the limit;
//   - returns a serialized size diagnostic when it does not, discarding the
//     oversized payload entirely;
//   - returns a serialized execution diagnostic when the invocation fails.
//
// Cancellation of ctx is the wrapped function's concern; whatever it returns
// (including a context error) still degrades to a diagnostic string here.
func (g *Governor) Wrap(tool string, fn InvokeFunc) GovernedFunc {
	return func(ctx context.Context, args map[string]any) (out string) {
		defer func() {
			if r := recover(); r != nil {
				out = g.executionDiagnostic(tool, fmt.Sprintf("%v", r), string(debug.Stack()))
			}
		}()

		raw, err := fn(ctx, args)
		if err != nil {
			return g.executionDiagnostic(tool, err.Error(), "")
		}

		serialized := Stringify(raw)
		max := g.LimitFor(tool)
		if len(serialized) > max {
			return g.sizeDiagnostic(tool, serialized, max)
		}
		return serialized
	}
}

func (g *Governor) sizeDiagnostic(tool, serialized string, max int) string {
	diag := types.SizeDiagnostic{
		Type: types.DiagToolResultSizeError,
		Tool: tool,
		Message: fmt.Sprintf(
			"Tool %q returned %d characters, exceeding the %d character limit. "+
				"The result was discarded before reaching the model; make no assumption about its content.",
			tool, len(serialized), max),
		ReturnedChars:    len(serialized),
		MaxAllowedChars:  max,
		EstimatedTokens:  tokens.Estimate(serialized),
		MaxAllowedTokens: tokens.TokensForChars(max),
	}

	g.logger.Warn("tool result exceeded size limit",
		"tool", tool,
		"returnedChars", diag.ReturnedChars,
		"maxAllowedChars", diag.MaxAllowedChars,
		"estimatedTokens", diag.EstimatedTokens,
		"sample", head(serialized, sampleLen),
	)

	g.mu.RLock()
	notify := g.onSizeExceeded
	g.mu.RUnlock()
	if notify != nil {
		notify(tool, diag.ReturnedChars, diag.MaxAllowedChars)
	}
	return mustJSON(diag)
}

func (g *Governor) executionDiagnostic(tool, errMsg, stack string) string {
	diag := types.ExecutionDiagnostic{
		Type:    types.DiagToolExecutionError,
		Tool:    tool,
		Message: fmt.Sprintf("Tool %q failed: %s", tool, errMsg),
		Error:   errMsg,
		Stack:   stack,
	}

	g.logger.Error("tool execution failed",
		"tool", tool,
		"error", errMsg,
	)
	return mustJSON(diag)
}

// mustJSON marshals a diagnostic. Diagnostics are flat structs of strings and
// ints, so marshaling cannot realistically fail; the fallback still emits a
// parseable diagnostic payload to keep the never-raise contract.
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"type":%q,"message":%q}`, types.DiagToolExecutionError, UnserializableMarker)
	}
	return string(data)
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
