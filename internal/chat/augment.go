package chat

import (
	"github.com/chatwing/chatwing/internal/llm"
)

// defaultSystemPrompt frames the assistant for tool-delegating chat.
const defaultSystemPrompt = `You are ChatWing, a focused assistant that can call external tools.

## Rules
- Call a tool when the user's request needs external data or actions; answer directly otherwise.
- Tool results may be a JSON diagnostic with a "type" field instead of real output. Treat "tool-result-size-error" and "tool-execution-error" diagnostics as terminal for that call: report the failure, do not retry the same call, and make no assumption about discarded content.
- Keep answers grounded in tool output; do not invent results.`

// reflectionPrompt is appended for models with native thinking support.
const reflectionPrompt = `Before answering, think through which tools (if any) are needed and in what order. Reconsider your plan after each tool result.`

// Augmentation is the per-turn adaptation to the active model's capabilities.
type Augmentation struct {
	// BindTools controls whether tool definitions are sent with the request.
	// Binding tools to a model that cannot call them wastes context and can
	// trigger provider-side 400s, so capability gates the binding.
	BindTools    bool
	SystemPrompt string
}

// AugmentFor decides tool binding and prompt shape from the model registry.
// An empty basePrompt selects the default system prompt.
func AugmentFor(modelID, basePrompt string) Augmentation {
	if basePrompt == "" {
		basePrompt = defaultSystemPrompt
	}
	a := Augmentation{
		BindTools:    llm.ModelSupportsTools(modelID),
		SystemPrompt: basePrompt,
	}
	if llm.ModelSupportsThinking(modelID) {
		a.SystemPrompt += "\n\n" + reflectionPrompt
	}
	return a
}
