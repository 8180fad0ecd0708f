package llm

import "sort"

// Model represents a complete model definition including metadata and
// capability flags. This is the single source of truth for all model
// information; context ceilings and tool augmentation both derive from it.
type Model struct {
	ID               string   // Canonical model ID (e.g., "gpt-5-mini")
	Provider         string   // Provider display name (e.g., "OpenAI")
	ProviderID       string   // Internal provider ID (e.g., "openai")
	Aliases          []string // Alternative IDs including dated versions
	ContextWindow    int      // Maximum tokens the model can consider in one call
	IsDefault        bool     // Whether this is the default model for its provider
	SupportsTools    bool     // Whether the model supports tool calling
	SupportsThinking bool     // Whether the model supports extended thinking mode
}

// DefaultContextWindow is the conservative ceiling assumed for models that
// are not in the registry. An unknown model is not an error; it just gets a
// small window so budget warnings fire early rather than late.
const DefaultContextWindow = 32_768

// ModelRegistry is the single source of truth for all supported models.
// Add new models here - everything else derives from this registry.
var ModelRegistry = []Model{
	// ============================================
	// OpenAI Models
	// ============================================
	{
		ID:            "gpt-5-mini",
		Provider:      "OpenAI",
		ProviderID:    ProviderOpenAI,
		Aliases:       []string{"gpt-5-mini-2025-08-07"},
		ContextWindow: 400_000,
		IsDefault:     true,
		SupportsTools: true,
	},
	{
		ID:               "gpt-5.1",
		Provider:         "OpenAI",
		ProviderID:       ProviderOpenAI,
		ContextWindow:    400_000,
		SupportsTools:    true,
		SupportsThinking: true,
	},
	{
		ID:            "gpt-4o",
		Provider:      "OpenAI",
		ProviderID:    ProviderOpenAI,
		Aliases:       []string{"gpt-4o-2024-08-06"},
		ContextWindow: 128_000,
		SupportsTools: true,
	},
	{
		ID:            "gpt-4o-mini",
		Provider:      "OpenAI",
		ProviderID:    ProviderOpenAI,
		Aliases:       []string{"gpt-4o-mini-2024-07-18"},
		ContextWindow: 128_000,
		SupportsTools: true,
	},

	// ============================================
	// Anthropic Models
	// ============================================
	{
		ID:               "claude-sonnet-4-5",
		Provider:         "Anthropic",
		ProviderID:       ProviderAnthropic,
		Aliases:          []string{"claude-sonnet-4-5-20250929"},
		ContextWindow:    200_000,
		IsDefault:        true,
		SupportsTools:    true,
		SupportsThinking: true,
	},
	{
		ID:               "claude-opus-4-1",
		Provider:         "Anthropic",
		ProviderID:       ProviderAnthropic,
		Aliases:          []string{"claude-opus-4-1-20250805"},
		ContextWindow:    200_000,
		SupportsTools:    true,
		SupportsThinking: true,
	},
	{
		ID:            "claude-3-5-haiku",
		Provider:      "Anthropic",
		ProviderID:    ProviderAnthropic,
		Aliases:       []string{"claude-3-5-haiku-20241022"},
		ContextWindow: 200_000,
		SupportsTools: true,
	},

	// ============================================
	// Google Gemini Models
	// ============================================
	{
		ID:               "gemini-2.5-pro",
		Provider:         "Google",
		ProviderID:       ProviderGemini,
		ContextWindow:    1_048_576,
		IsDefault:        true,
		SupportsTools:    true,
		SupportsThinking: true,
	},
	{
		ID:            "gemini-2.5-flash",
		Provider:      "Google",
		ProviderID:    ProviderGemini,
		ContextWindow: 1_048_576,
		SupportsTools: true,
	},

	// ============================================
	// Ollama Models (local)
	// ============================================
	{
		ID:            "llama3.2",
		Provider:      "Ollama",
		ProviderID:    ProviderOllama,
		ContextWindow: 128_000,
		IsDefault:     true,
		SupportsTools: true,
	},
	{
		ID:            "qwen2.5-coder",
		Provider:      "Ollama",
		ProviderID:    ProviderOllama,
		ContextWindow: 32_768,
		SupportsTools: true,
	},
	{
		ID:            "phi3",
		Provider:      "Ollama",
		ProviderID:    ProviderOllama,
		ContextWindow: 4_096,
	},
}

// modelIndex maps every ID and alias to its registry entry.
var modelIndex map[string]*Model

func init() {
	buildModelIndex()
}

func buildModelIndex() {
	modelIndex = make(map[string]*Model, len(ModelRegistry)*2)
	for i := range ModelRegistry {
		m := &ModelRegistry[i]
		modelIndex[m.ID] = m
		for _, alias := range m.Aliases {
			modelIndex[alias] = m
		}
	}
}

// GetModel looks up a model by ID or alias. Returns nil if unknown.
func GetModel(modelID string) *Model {
	return modelIndex[modelID]
}

// GetDefaultModelID returns the default model ID for a provider, or "" when
// the provider has no registered default.
func GetDefaultModelID(providerID string) string {
	for i := range ModelRegistry {
		m := &ModelRegistry[i]
		if m.ProviderID == providerID && m.IsDefault {
			return m.ID
		}
	}
	return ""
}

// ContextWindowFor returns the context ceiling for a model ID, falling back
// to DefaultContextWindow for models outside the registry.
func ContextWindowFor(modelID string) int {
	if m := GetModel(modelID); m != nil && m.ContextWindow > 0 {
		return m.ContextWindow
	}
	return DefaultContextWindow
}

// ModelSupportsTools reports whether a model can accept tool bindings.
// Unknown models are assumed not to; tool augmentation is conditional on a
// positive registry entry.
func ModelSupportsTools(modelID string) bool {
	m := GetModel(modelID)
	return m != nil && m.SupportsTools
}

// ModelSupportsThinking reports whether a model supports extended thinking.
func ModelSupportsThinking(modelID string) bool {
	m := GetModel(modelID)
	return m != nil && m.SupportsThinking
}

// ListModelIDs returns all canonical model IDs, sorted.
func ListModelIDs() []string {
	ids := make([]string, 0, len(ModelRegistry))
	for i := range ModelRegistry {
		ids = append(ids, ModelRegistry[i].ID)
	}
	sort.Strings(ids)
	return ids
}
