// Package budget maintains a running estimate of context-window usage for the
// active conversation and classifies it into a warning tier for presentation.
package budget

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/chatwing/chatwing/internal/llm"
	"github.com/chatwing/chatwing/internal/llm/tokens"
)

// Tier is the warning level derived from the usage ratio.
type Tier int

const (
	TierSafe Tier = iota
	TierInfo
	TierWarning
	TierCritical
)

// Tier thresholds as percentages of the model's context ceiling. The tier is
// always the highest threshold met; boundaries are inclusive.
const (
	InfoThresholdPct     = 70
	WarningThresholdPct  = 85
	CriticalThresholdPct = 95
)

// DefaultSystemPromptTokens is the fixed overhead added to every estimate to
// account for the system prompt and tool schema bindings.
const DefaultSystemPromptTokens = 2_000

// DefaultDebounce coalesces recomputation while the transcript is changing
// rapidly; re-serializing a large transcript on every append is wasteful.
const DefaultDebounce = 300 * time.Millisecond

func (t Tier) String() string {
	switch t {
	case TierInfo:
		return "info"
	case TierWarning:
		return "warning"
	case TierCritical:
		return "critical"
	default:
		return "safe"
	}
}

// State is one point-in-time budget classification.
type State struct {
	EstimatedTokens int
	MaxTokens       int
	Percent         int // 0-100, clamped
	Tier            Tier
}

// Display returns the short human-readable form consumed by presentation code.
func (s State) Display() string {
	return fmt.Sprintf("%d%% of %s context used (%s)", s.Percent, humanTokens(s.MaxTokens), s.Tier)
}

func humanTokens(n int) string {
	if n >= 1000 && n%1000 == 0 {
		return fmt.Sprintf("%dk-token", n/1000)
	}
	return fmt.Sprintf("%d-token", n)
}

// TierFor classifies a usage of used tokens against a ceiling of max tokens.
// Integer arithmetic keeps the boundaries exact: 70% of 100k trips info at
// exactly 70,000 tokens, not at 70,001.
func TierFor(used, max int) Tier {
	if max <= 0 {
		return TierCritical
	}
	switch {
	case used*100 >= max*CriticalThresholdPct:
		return TierCritical
	case used*100 >= max*WarningThresholdPct:
		return TierWarning
	case used*100 >= max*InfoThresholdPct:
		return TierInfo
	default:
		return TierSafe
	}
}

// Snapshot estimates usage for a transcript under the given model and returns
// the derived state. An unknown model is not an error; it falls back to the
// registry's conservative default ceiling. Negative overhead is normalized
// to zero.
func Snapshot(transcript []*schema.Message, modelID string, overheadTokens int) State {
	if overheadTokens < 0 {
		overheadTokens = 0
	}
	used := tokens.Estimate(SerializeTranscript(transcript)) + overheadTokens
	if used < 0 {
		used = 0
	}
	max := llm.ContextWindowFor(modelID)

	percent := 0
	if max > 0 {
		percent = used * 100 / max
	}
	if percent > 100 {
		percent = 100
	}

	return State{
		EstimatedTokens: used,
		MaxTokens:       max,
		Percent:         percent,
		Tier:            TierFor(used, max),
	}
}

// SerializeTranscript flattens a transcript to the text form the estimator
// measures: roles, content, and tool call arguments all count against the
// window.
func SerializeTranscript(transcript []*schema.Message) string {
	var b strings.Builder
	for _, msg := range transcript {
		if msg == nil {
			continue
		}
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		for _, tc := range msg.ToolCalls {
			b.WriteString("\n")
			b.WriteString(tc.Function.Name)
			b.WriteString("(")
			b.WriteString(tc.Function.Arguments)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Config tunes a Tracker.
type Config struct {
	// SystemPromptTokens is the fixed overhead added to every estimate
	SystemPromptTokens int
	// Debounce is the coalescing delay; zero means recompute synchronously
	Debounce time.Duration
	// OnChange, if set, receives every settled state
	OnChange func(State)
}

// Tracker recomputes budget state as the transcript or model changes,
// debouncing bursts so only the most recent transcript is ever reflected
// once the interval elapses (last-write-wins, never stale-write-wins).
type Tracker struct {
	mu       sync.Mutex
	overhead int
	debounce time.Duration
	onChange func(State)

	modelID string
	pending []*schema.Message
	dirty   bool
	timer   *time.Timer
	latest  State
}

// NewTracker creates a tracker for the given model.
func NewTracker(modelID string, cfg Config) *Tracker {
	overhead := cfg.SystemPromptTokens
	if overhead == 0 {
		overhead = DefaultSystemPromptTokens
	}
	t := &Tracker{
		overhead: overhead,
		debounce: cfg.Debounce,
		onChange: cfg.OnChange,
		modelID:  modelID,
	}
	t.latest = Snapshot(nil, modelID, overhead)
	return t
}

// Update schedules a recompute for the given transcript. A pending recompute
// is canceled and rescheduled; the final settled transcript always lands.
func (t *Tracker) Update(transcript []*schema.Message) {
	t.mu.Lock()
	t.pending = transcript
	t.dirty = true
	if t.debounce <= 0 {
		t.mu.Unlock()
		t.settle()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.debounce, t.settle)
	t.mu.Unlock()
}

// SetModel switches the active model and recomputes immediately against the
// last known transcript; a model change must not wait out the debounce.
func (t *Tracker) SetModel(modelID string) {
	t.mu.Lock()
	t.modelID = modelID
	t.dirty = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
	t.settle()
}

// Flush forces any pending recompute to settle now. Safe to call at shutdown.
func (t *Tracker) Flush() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
	t.settle()
}

// State returns the most recently settled state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}

func (t *Tracker) settle() {
	t.mu.Lock()
	if !t.dirty {
		t.mu.Unlock()
		return
	}
	transcript := t.pending
	modelID := t.modelID
	t.dirty = false
	t.timer = nil
	t.mu.Unlock()

	st := Snapshot(transcript, modelID, t.overhead)

	t.mu.Lock()
	t.latest = st
	cb := t.onChange
	t.mu.Unlock()

	if cb != nil {
		cb(st)
	}
}
