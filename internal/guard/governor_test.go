package guard

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/chatwing/chatwing/types"
)

func newTestGovernor(t *testing.T, limits LimitConfig) *Governor {
	t.Helper()
	g, err := New(limits)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestNewRejectsNonPositiveLimits(t *testing.T) {
	tests := []struct {
		name   string
		limits LimitConfig
	}{
		{"zero override", LimitConfig{PerTool: map[string]int{"fetch": 0}}},
		{"negative override", LimitConfig{PerTool: map[string]int{"fetch": -100}}},
		{"negative default", LimitConfig{DefaultMaxChars: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.limits); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestNewZeroDefaultUsesBuiltIn(t *testing.T) {
	g := newTestGovernor(t, LimitConfig{})
	if got := g.LimitFor("anything"); got != DefaultMaxChars {
		t.Errorf("LimitFor = %d, want %d", got, DefaultMaxChars)
	}
}

func TestWrapSizeExceeded(t *testing.T) {
	// The canonical scenario: 20-char result against a 10-char limit.
	g := newTestGovernor(t, LimitConfig{PerTool: map[string]int{"fetch": 10}})
	governed := g.Wrap("fetch", func(context.Context, map[string]any) (any, error) {
		return "0123456789abcdefghij", nil
	})

	out := governed(context.Background(), nil)

	var diag types.SizeDiagnostic
	if err := json.Unmarshal([]byte(out), &diag); err != nil {
		t.Fatalf("diagnostic is not valid JSON: %v\n%s", err, out)
	}
	if diag.Type != types.DiagToolResultSizeError {
		t.Errorf("type = %q, want %q", diag.Type, types.DiagToolResultSizeError)
	}
	if diag.Tool != "fetch" {
		t.Errorf("tool = %q, want fetch", diag.Tool)
	}
	if diag.ReturnedChars != 20 {
		t.Errorf("returnedChars = %d, want 20", diag.ReturnedChars)
	}
	if diag.MaxAllowedChars != 10 {
		t.Errorf("maxAllowedChars = %d, want 10", diag.MaxAllowedChars)
	}
	if diag.EstimatedTokens != 5 {
		t.Errorf("estimatedTokens = %d, want 5", diag.EstimatedTokens)
	}
	if strings.Contains(out, "0123456789abcdefghij") {
		t.Error("oversized payload leaked into the diagnostic")
	}
}

func TestWrapWithinLimitPassesThrough(t *testing.T) {
	g := newTestGovernor(t, LimitConfig{PerTool: map[string]int{"fetch": 10}})
	governed := g.Wrap("fetch", func(context.Context, map[string]any) (any, error) {
		return "0123456789", nil // exactly at the limit
	})

	if out := governed(context.Background(), nil); out != "0123456789" {
		t.Errorf("content at the limit must pass unchanged, got %q", out)
	}
}

func TestWrapExecutionError(t *testing.T) {
	g := newTestGovernor(t, LimitConfig{})
	governed := g.Wrap("deploy", func(context.Context, map[string]any) (any, error) {
		return nil, errors.New("connection refused by upstream")
	})

	out := governed(context.Background(), nil)

	var diag types.ExecutionDiagnostic
	if err := json.Unmarshal([]byte(out), &diag); err != nil {
		t.Fatalf("diagnostic is not valid JSON: %v", err)
	}
	if diag.Type != types.DiagToolExecutionError {
		t.Errorf("type = %q, want %q", diag.Type, types.DiagToolExecutionError)
	}
	if !strings.Contains(diag.Message, "connection refused by upstream") {
		t.Errorf("message %q does not contain the original error", diag.Message)
	}
	if diag.Tool != "deploy" {
		t.Errorf("tool = %q, want deploy", diag.Tool)
	}
}

func TestWrapRecoversPanic(t *testing.T) {
	g := newTestGovernor(t, LimitConfig{})
	governed := g.Wrap("explode", func(context.Context, map[string]any) (any, error) {
		panic("tool blew up")
	})

	out := governed(context.Background(), nil)

	var diag types.ExecutionDiagnostic
	if err := json.Unmarshal([]byte(out), &diag); err != nil {
		t.Fatalf("diagnostic is not valid JSON: %v", err)
	}
	if !strings.Contains(diag.Error, "tool blew up") {
		t.Errorf("error %q does not contain the panic value", diag.Error)
	}
	if diag.Stack == "" {
		t.Error("panic diagnostic should carry a stack trace")
	}
}

func TestWrapSerializesStructuredResults(t *testing.T) {
	g := newTestGovernor(t, LimitConfig{})
	governed := g.Wrap("lookup", func(context.Context, map[string]any) (any, error) {
		return map[string]any{"status": "ok", "count": 3}, nil
	})

	out := governed(context.Background(), nil)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("structured result did not serialize to JSON: %v", err)
	}
	if parsed["status"] != "ok" {
		t.Errorf("status = %v", parsed["status"])
	}
}

func TestWrapNotifiesSizeExceeded(t *testing.T) {
	g := newTestGovernor(t, LimitConfig{PerTool: map[string]int{"fetch": 10}})

	var gotTool string
	var gotReturned, gotMax int
	g.SetOnSizeExceeded(func(tool string, returnedChars, maxChars int) {
		gotTool, gotReturned, gotMax = tool, returnedChars, maxChars
	})

	governed := g.Wrap("fetch", func(context.Context, map[string]any) (any, error) {
		return "0123456789abcdefghij", nil
	})
	governed(context.Background(), nil)

	if gotTool != "fetch" || gotReturned != 20 || gotMax != 10 {
		t.Errorf("callback got (%q, %d, %d), want (fetch, 20, 10)", gotTool, gotReturned, gotMax)
	}

	// Results within the limit must not fire the callback.
	gotTool = ""
	ok := g.Wrap("fetch", func(context.Context, map[string]any) (any, error) {
		return "short", nil
	})
	ok(context.Background(), nil)
	if gotTool != "" {
		t.Errorf("callback fired for a within-limit result (tool %q)", gotTool)
	}
}

func TestMustJSONFallbackStaysParseable(t *testing.T) {
	out := mustJSON(make(chan int)) // channels cannot marshal

	var diag types.ExecutionDiagnostic
	if err := json.Unmarshal([]byte(out), &diag); err != nil {
		t.Fatalf("fallback is not valid JSON: %v\n%s", err, out)
	}
	if diag.Type != types.DiagToolExecutionError {
		t.Errorf("type = %q, want %q", diag.Type, types.DiagToolExecutionError)
	}
	if diag.Message != UnserializableMarker {
		t.Errorf("message = %q, want %q", diag.Message, UnserializableMarker)
	}
}

func TestUpdateLimits(t *testing.T) {
	g := newTestGovernor(t, LimitConfig{PerTool: map[string]int{"fetch": 10}})

	if err := g.UpdateLimits(LimitConfig{PerTool: map[string]int{"fetch": 0}}); err == nil {
		t.Error("invalid reload must be rejected")
	}
	if got := g.LimitFor("fetch"); got != 10 {
		t.Errorf("rejected reload must leave limits intact, got %d", got)
	}

	if err := g.UpdateLimits(LimitConfig{PerTool: map[string]int{"fetch": 25}}); err != nil {
		t.Fatalf("UpdateLimits: %v", err)
	}
	if got := g.LimitFor("fetch"); got != 25 {
		t.Errorf("LimitFor after reload = %d, want 25", got)
	}
}
