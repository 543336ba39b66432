package model

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the complete service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Models    ModelsConfig    `yaml:"models" mapstructure:"models"`
	WebSearch WebSearchConfig `yaml:"web_search" mapstructure:"web_search"`
	Acquire   AcquireConfig   `yaml:"acquire" mapstructure:"acquire"`
	Verify    VerifyConfig    `yaml:"verify" mapstructure:"verify"`
	Validate  ValidateConfig  `yaml:"validate" mapstructure:"validate"`
	Tasks     TasksConfig     `yaml:"tasks" mapstructure:"tasks"`
	OpenAIKey string          `yaml:"openai_api_key" mapstructure:"openai_api_key"`
}

// ServerConfig holds the HTTP surface settings
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// APIKeyHeader carries an optional per-request credential override
	APIKeyHeader string `yaml:"api_key_header" mapstructure:"api_key_header"`
	// AsyncModalities lists which modalities detach into background tasks
	AsyncModalities []string `yaml:"async_modalities" mapstructure:"async_modalities"`
}

// ModelsConfig names the model for each capability
type ModelsConfig struct {
	Transcription string  `yaml:"transcription" mapstructure:"transcription"`
	FactCheck     string  `yaml:"fact_check" mapstructure:"fact_check"`
	ImageAnalysis string  `yaml:"image_analysis" mapstructure:"image_analysis"`
	WebSearch     string  `yaml:"web_search" mapstructure:"web_search"`
	Temperature   float32 `yaml:"temperature" mapstructure:"temperature"`
}

// WebSearchConfig controls claim-search augmentation
type WebSearchConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	ContextSize string `yaml:"context_size" mapstructure:"context_size"` // low, medium, high
}

// AcquireConfig controls the media acquisition ladder
type AcquireConfig struct {
	UploadDir         string        `yaml:"upload_dir" mapstructure:"upload_dir"`
	AllowedExtensions []string      `yaml:"allowed_extensions" mapstructure:"allowed_extensions"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	ExternalTool      string        `yaml:"external_tool" mapstructure:"external_tool"` // empty disables
	DirectScrape      bool          `yaml:"direct_scrape" mapstructure:"direct_scrape"`
	SessionFile       string        `yaml:"session_file" mapstructure:"session_file"`
	Username          string        `yaml:"username" mapstructure:"username"`
	Password          string        `yaml:"password" mapstructure:"password"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	FileMaxAge        time.Duration `yaml:"file_max_age" mapstructure:"file_max_age"`
}

// VerifyConfig controls the verification validation loop
type VerifyConfig struct {
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	MaxTokens  int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ValidateConfig controls post-report source link checking
type ValidateConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Workers   int           `yaml:"workers" mapstructure:"workers"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RateLimit float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // requests/sec per host
}

// TasksConfig controls background task retention
type TasksConfig struct {
	Retention     time.Duration `yaml:"retention" mapstructure:"retention"`
	SweepSchedule string        `yaml:"sweep_schedule" mapstructure:"sweep_schedule"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			AllowedOrigins:  []string{"https://fact.scdesign.eu"},
			APIKeyHeader:    "X-API-Key",
			AsyncModalities: []string{"video"},
		},
		Models: ModelsConfig{
			Transcription: "whisper-1",
			FactCheck:     "gpt-4o-mini",
			ImageAnalysis: "gpt-4o",
			WebSearch:     "gpt-4o-search-preview",
			Temperature:   0.3,
		},
		WebSearch: WebSearchConfig{
			Enabled:     true,
			ContextSize: "medium",
		},
		Acquire: AcquireConfig{
			UploadDir:         "uploads",
			AllowedExtensions: []string{".mp4", ".mov", ".avi", ".jpg", ".jpeg", ".png", ".gif"},
			MaxRetries:        3,
			RetryDelay:        5 * time.Second,
			DirectScrape:      true,
			SessionFile:       "session.json",
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			FileMaxAge:        24 * time.Hour,
		},
		Verify: VerifyConfig{
			MaxRetries: 3,
			RetryDelay: 2 * time.Second,
			MaxTokens:  4096,
		},
		Validate: ValidateConfig{
			Enabled:   false,
			Workers:   4,
			Timeout:   10 * time.Second,
			RateLimit: 1,
		},
		Tasks: TasksConfig{
			Retention:     24 * time.Hour,
			SweepSchedule: "@every 1h",
		},
	}
}

// LoadConfig overlays viper-resolved settings (flags > env > file) onto
// the defaults
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if key := v.GetString("openai_api_key"); key != "" {
		cfg.OpenAIKey = key
	}
	return cfg, nil
}
