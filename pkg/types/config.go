package types

import "time"

// LogConfig controls the structured logger.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "console" or "json" (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// AIConfig holds settings for the remote completion service.
type AIConfig struct {
	// Provider selects the completion backend: gemini, anthropic, openai.
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the provider model identifier (e.g. "gemini-2.0-flash-lite").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the credential for the provider. Usually loaded from
	// .secrets/ rather than the config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint. Empty uses the default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries is the number of retries on rate-limit responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxTokens caps the completion length for providers that require it.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// QuotaConfig holds the usage limits for remote calls.
type QuotaConfig struct {
	// DailyLimit is the maximum number of calls per calendar day (default 1000).
	DailyLimit int `json:"daily_limit" yaml:"daily_limit" mapstructure:"daily_limit"`

	// MonthlyLimit is the maximum number of calls per calendar month (default 30000).
	MonthlyLimit int `json:"monthly_limit" yaml:"monthly_limit" mapstructure:"monthly_limit"`

	// UsageFile is the path of the persisted usage ledger.
	UsageFile string `json:"usage_file" yaml:"usage_file" mapstructure:"usage_file"`
}

// AnalysisConfig holds settings shared by the local and remote analysis paths.
type AnalysisConfig struct {
	// RulesFile is an optional YAML file of extra extraction rules.
	RulesFile string `json:"rules_file,omitempty" yaml:"rules_file,omitempty" mapstructure:"rules_file"`

	// MaxPromptChars is the number of characters of deck text sent to the
	// completion service (default 3000).
	MaxPromptChars int `json:"max_prompt_chars" yaml:"max_prompt_chars" mapstructure:"max_prompt_chars"`

	// RequestDelay is the minimum spacing between remote calls in a batch (default 2s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay" mapstructure:"request_delay"`
}

// OutputConfig controls where batch artifacts are written.
type OutputConfig struct {
	// Dir is the directory receiving per-deck JSON files and batch summaries.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Markdown also writes a Markdown rendering next to each JSON file.
	Markdown bool `json:"markdown" yaml:"markdown" mapstructure:"markdown"`
}

// IndexConfig holds settings for the SQLite results index.
type IndexConfig struct {
	// Path is the database file (default deckminer.db in the output directory).
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// MaxResults limits retrieve results when no explicit limit is given (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// Config is the full deckminer configuration.
type Config struct {
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
	AI       AIConfig       `json:"ai" yaml:"ai" mapstructure:"ai"`
	Quota    QuotaConfig    `json:"quota" yaml:"quota" mapstructure:"quota"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
	Output   OutputConfig   `json:"output" yaml:"output" mapstructure:"output"`
	Index    IndexConfig    `json:"index" yaml:"index" mapstructure:"index"`
}
