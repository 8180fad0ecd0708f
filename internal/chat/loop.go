// Package chat runs the tool-calling conversation loop: model turns, governed
// tool execution, and budget tracking over the shared transcript.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/chatwing/chatwing/internal/budget"
	"github.com/chatwing/chatwing/internal/guard"
	"github.com/chatwing/chatwing/internal/llm"
)

// DefaultMaxIterations bounds tool-use rounds within a single user turn.
const DefaultMaxIterations = 10

// ErrBudgetExhausted is returned when the context budget tier is critical and
// the turn was not forced.
var ErrBudgetExhausted = errors.New("context budget critical: refusing new turn (use --force to override)")

// Options configures a Loop.
type Options struct {
	SystemPrompt  string
	MaxIterations int
	// Force lets a turn proceed even at the critical budget tier.
	Force  bool
	Logger *slog.Logger
}

// Loop owns one conversation: the transcript, the governed tool map, and the
// budget tracker that watches the transcript grow.
type Loop struct {
	llmConfig llm.Config
	tools     map[string]guard.GovernedFunc
	toolInfos []*schema.ToolInfo
	tracker   *budget.Tracker
	opts      Options
	messages  []*schema.Message

	modelFactory func(context.Context, llm.Config) (model.BaseChatModel, error)
}

// New builds a Loop. The transcript starts with the (possibly augmented)
// system prompt; tool infos must describe the same tools the governed map
// executes.
func New(cfg llm.Config, tools map[string]guard.GovernedFunc, toolInfos []*schema.ToolInfo, tracker *budget.Tracker, opts Options) *Loop {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	aug := AugmentFor(cfg.Model, opts.SystemPrompt)
	l := &Loop{
		llmConfig:    cfg,
		tools:        tools,
		toolInfos:    toolInfos,
		tracker:      tracker,
		opts:         opts,
		messages:     []*schema.Message{schema.SystemMessage(aug.SystemPrompt)},
		modelFactory: llm.NewChatModel,
	}
	l.trackTranscript()
	return l
}

// History returns the transcript, system prompt included.
func (l *Loop) History() []*schema.Message { return l.messages }

// SetHistory replaces the transcript, for resuming a stored session. The
// slice is used as-is; it should start with a system message.
func (l *Loop) SetHistory(messages []*schema.Message) {
	l.messages = messages
	l.trackTranscript()
}

// Turn runs one user turn to completion: model call, governed tool rounds,
// final answer. The budget tracker is updated after every append; a turn at
// the critical tier is refused up front unless forced.
func (l *Loop) Turn(ctx context.Context, userInput string) (string, error) {
	if l.tracker != nil && !l.opts.Force {
		if l.tracker.State().Tier == budget.TierCritical {
			return "", ErrBudgetExhausted
		}
	}

	chatModel, err := l.modelFactory(ctx, l.llmConfig)
	if err != nil {
		return "", fmt.Errorf("create chat model: %w", err)
	}

	aug := AugmentFor(l.llmConfig.Model, l.opts.SystemPrompt)
	l.append(schema.UserMessage(userInput))

	for iter := 0; iter < l.opts.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		var genOpts []model.Option
		if aug.BindTools && len(l.toolInfos) > 0 {
			genOpts = append(genOpts, model.WithTools(l.toolInfos))
		}

		resp, err := chatModel.Generate(ctx, l.messages, genOpts...)
		if err != nil {
			return "", fmt.Errorf("generate (iter %d): %w", iter+1, err)
		}
		l.append(resp)

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		for _, tc := range resp.ToolCalls {
			l.append(schema.ToolMessage(l.executeToolCall(ctx, tc), tc.ID))
		}
	}

	// The model never settled on an answer. Surface whatever it said last
	// rather than dropping the turn on the floor.
	l.opts.Logger.Warn("turn hit max tool iterations", "maxIterations", l.opts.MaxIterations)
	if last := l.messages[len(l.messages)-1]; last.Role == schema.Assistant && last.Content != "" {
		return last.Content, nil
	}
	return "", fmt.Errorf("no final answer after %d tool iterations", l.opts.MaxIterations)
}

// executeToolCall routes one tool call through the governed map. Everything
// that can go wrong becomes text for the model; the loop itself never fails on
// a tool.
func (l *Loop) executeToolCall(ctx context.Context, tc schema.ToolCall) string {
	name := tc.Function.Name
	governed, ok := l.tools[name]
	if !ok {
		l.opts.Logger.Warn("model called unknown tool", "tool", name)
		return fmt.Sprintf("unknown tool %q: only the provided tools may be called", name)
	}

	args := map[string]any{}
	if raw := tc.Function.Arguments; raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return fmt.Sprintf("invalid arguments for tool %q: %v", name, err)
		}
	}
	return governed(ctx, args)
}

// Close flushes the tracker so the last transcript state is settled.
func (l *Loop) Close() {
	if l.tracker != nil {
		l.tracker.Flush()
	}
}

func (l *Loop) append(msg *schema.Message) {
	l.messages = append(l.messages, msg)
	l.trackTranscript()
}

func (l *Loop) trackTranscript() {
	if l.tracker != nil {
		l.tracker.Update(l.messages)
	}
}
