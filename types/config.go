package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose   bool            `mapstructure:"verbose"`
	Config    string          `mapstructure:"config"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"omitempty"`
	Servers   []ServerConfig  `mapstructure:"servers" validate:"omitempty,dive"`
	Limits    LimitsConfig    `mapstructure:"limits" validate:"omitempty"`
	Budget    BudgetConfig    `mapstructure:"budget" validate:"omitempty"`
	Data      DataConfig      `mapstructure:"data" validate:"omitempty"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LLMConfig holds configuration for the model provider
type LLMConfig struct {
	Provider string `mapstructure:"provider" validate:"omitempty,oneof=openai anthropic ollama gemini"`
	Model    string `mapstructure:"model" validate:"omitempty,min=1"`
	APIKey   string `mapstructure:"apiKey" validate:"omitempty,min=1"`
	BaseURL  string `mapstructure:"baseUrl" validate:"omitempty,url"`
	// MaxTurnIterations bounds the tool-calling loop within a single chat turn
	MaxTurnIterations int `mapstructure:"maxTurnIterations" validate:"omitempty,min=1,max=50"`
}

// ServerConfig describes one MCP tool server the client connects to.
// Spec is a transport spec: "stdio://<command> <args...>" or an http(s) URL.
// Catalog points at the YAML file holding the schemas the client trusts for
// this server; empty means the server is used uncatalogued (no audit gate).
type ServerConfig struct {
	Name    string `mapstructure:"name" validate:"required,min=1"`
	Spec    string `mapstructure:"spec" validate:"required,min=1"`
	Catalog string `mapstructure:"catalog" validate:"omitempty,min=1"`
}

// LimitsConfig bounds the size of governed tool results, in characters.
// A zero DefaultMaxChars means "use the built-in default". Per-tool overrides
// must be positive; a zero or negative override is a configuration error, not
// a silent no-op.
type LimitsConfig struct {
	DefaultMaxChars int            `mapstructure:"defaultMaxChars" validate:"omitempty,gt=0"`
	PerTool         map[string]int `mapstructure:"perTool" validate:"omitempty,dive,gt=0"`
}

// BudgetConfig tunes the context budget tracker.
type BudgetConfig struct {
	// SystemPromptTokens is the fixed overhead added to every estimate
	SystemPromptTokens int `mapstructure:"systemPromptTokens" validate:"omitempty,min=0"`
	// DebounceMs coalesces recomputation while the transcript changes rapidly
	DebounceMs int `mapstructure:"debounceMs" validate:"omitempty,min=0,max=5000"`
}

// DataConfig holds local persistence configuration
type DataConfig struct {
	// SessionDB is the SQLite file for chat session history; empty disables persistence
	SessionDB string `mapstructure:"sessionDb" validate:"omitempty,min=1"`
}

// TelemetryConfig controls anonymous usage analytics. Disabled unless
// explicitly enabled.
type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"apiKey"`
	Host    string `mapstructure:"host"`
}
