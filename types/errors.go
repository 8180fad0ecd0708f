package types

import "fmt"

// Diagnostic type discriminators. Any consumer parsing governed tool output
// must treat these type values as terminal, non-retryable signals for that call.
const (
	// DiagToolExecutionError marks a wrapped tool function that rejected or raised
	DiagToolExecutionError = "tool-execution-error"

	// DiagToolResultSizeError marks a tool result that exceeded its size limit
	DiagToolResultSizeError = "tool-result-size-error"
)

// SizeDiagnostic is the serialized body of a governed call whose result was
// too large. The oversized payload itself is discarded; only the measurements
// survive.
type SizeDiagnostic struct {
	Type             string `json:"type"`
	Tool             string `json:"tool"`
	Message          string `json:"message"`
	ReturnedChars    int    `json:"returnedChars"`
	MaxAllowedChars  int    `json:"maxAllowedChars"`
	EstimatedTokens  int    `json:"estimatedTokens"`
	MaxAllowedTokens int    `json:"maxAllowedTokens"`
}

// ExecutionDiagnostic is the serialized body of a governed call whose wrapped
// function failed. It is returned to the model as data, never raised.
type ExecutionDiagnostic struct {
	Type    string `json:"type"`
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Stack   string `json:"stack,omitempty"`
}

// ConnectionError reports that a tool server could not be reached during
// schema reconciliation. It is scoped to one server; reconciliation of other
// servers proceeds.
type ConnectionError struct {
	Server string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to tool server %q: %v", e.Server, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
