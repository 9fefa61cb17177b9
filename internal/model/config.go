package model

import "time"

// Config holds the complete kursbot configuration
type Config struct {
	Data         DataConfig         `yaml:"data" mapstructure:"data"`
	Classifier   ClassifierConfig   `yaml:"classifier" mapstructure:"classifier"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Diagnostics  DiagnosticsConfig  `yaml:"diagnostics" mapstructure:"diagnostics"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Analysis     AnalysisConfig     `yaml:"analysis" mapstructure:"analysis"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// DataConfig points at the startup data files. Empty paths mean the
// embedded defaults are used.
type DataConfig struct {
	OntologyPath  string `yaml:"ontology_path" mapstructure:"ontology_path"`
	CompoundsPath string `yaml:"compounds_path" mapstructure:"compounds_path"`
	RulesPath     string `yaml:"rules_path" mapstructure:"rules_path"`
}

// ClassifierConfig configures the fallback classifier. The classifier only
// resolves unknown terms; it never influences the verdict.
type ClassifierConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "openai", "ollama", "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"` // Never written to config files
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds, per attempt
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	Retries   int    `yaml:"retries" mapstructure:"retries"` // retries after the first attempt
}

// CacheConfig configures the classification result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// DiagnosticsConfig configures the unknown-term store used for ontology curation
type DiagnosticsConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	UnknownsDB string `yaml:"unknowns_db" mapstructure:"unknowns_db"`
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles classifier calls per provider
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// AnalysisConfig controls how assumed ingredients are treated
type AnalysisConfig struct {
	// Mode is "strict" (assumed items never affect the verdict) or
	// "assumption" (assumed items are evaluated like explicit ones).
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// OutputConfig controls output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	JSON    bool `yaml:"json" mapstructure:"json"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{},
		Classifier: ClassifierConfig{
			Provider:  "", // Disabled by default; the core works without it
			Timeout:   10,
			MaxTokens: 500,
			Retries:   1,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Diagnostics: DiagnosticsConfig{
			Enabled:    true,
			UnknownsDB: defaultUnknownsDB(),
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2.0,
			BurstSize:         4,
		},
		Analysis: AnalysisConfig{
			Mode: "strict",
		},
		Output: OutputConfig{},
	}
}
