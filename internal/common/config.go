package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Gemini      GeminiConfig      `toml:"gemini"`
	Claude      ClaudeConfig      `toml:"claude"`
	LLM         LLMConfig         `toml:"llm"`
	Discovery   DiscoveryConfig   `toml:"discovery"`
	Collector   CollectorConfig   `toml:"collector"`
	Marketplace MarketplaceConfig `toml:"marketplace"`
	Extractor   ExtractorConfig   `toml:"extractor"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for discovery and prompt execution (default: "gemini-2.5-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Discovery generation temperature (default: 0.2)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`    // Anthropic API key
	Model     string `toml:"model"`      // Model for prompt execution (default: "claude-haiku-3-5-20241022")
	MaxTokens int    `toml:"max_tokens"` // Maximum tokens in response (default: 8192)
	Timeout   string `toml:"timeout"`    // Operation timeout as duration string (default: "5m")
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the provider used for ungrounded prompt execution.
// Discovery always runs on Gemini since it needs search grounding.
type LLMConfig struct {
	PromptProvider LLMProvider `toml:"prompt_provider"` // "gemini" or "claude" (default: "gemini")
}

// DiscoveryConfig contains discovery engine configuration
type DiscoveryConfig struct {
	SelfBrand       string `toml:"self_brand"`       // Operator's own brand, excluded from results
	CompetitorsPath string `toml:"competitors_path"` // Path to the competitor profiles JSON file
	DebugDir        string `toml:"debug_dir"`        // Directory for raw/repaired model output dumps
	MaxAttempts     int    `toml:"max_attempts"`     // Attempts while the model returns empty text (default: 5)
	BatchSize       int    `toml:"batch_size"`       // Candidates requested per collection iteration (default: 5)
}

// CollectorConfig contains batch collection loop configuration.
// MinContentLength and the probe timeouts are policy knobs kept configurable
// so accept/reject behavior never changes silently.
type CollectorConfig struct {
	MinContentLength int           `toml:"min_content_length"` // Reject sources with less extracted text (default: 300)
	ProbeTimeout     time.Duration `toml:"probe_timeout"`      // Liveness probe timeout (default: 10s)
	ResolveTimeout   time.Duration `toml:"resolve_timeout"`    // Redirect resolution timeout (default: 10s)
	UserAgent        string        `toml:"user_agent"`         // User agent for probes and resolution
}

// MarketplaceConfig contains marketplace search API configuration
type MarketplaceConfig struct {
	APIKey         string        `toml:"api_key"`         // Search API key
	Endpoint       string        `toml:"endpoint"`        // Search API endpoint
	Engine         string        `toml:"engine"`          // Search engine identifier (default: "shopee")
	RateLimit      time.Duration `toml:"rate_limit"`      // Minimum interval between requests
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
}

// ExtractorConfig contains source processor configuration
type ExtractorConfig struct {
	RequestTimeout time.Duration `toml:"request_timeout"` // Fetch timeout per URL
	MaxBodySize    int           `toml:"max_body_size"`   // Maximum response body size in bytes
	UserAgent      string        `toml:"user_agent"`      // User agent for content fetches
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in reperio.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (no fallback)
			Model:       "gemini-2.5-flash",
			Timeout:     "5m",
			RateLimit:   "4s", // 15 RPM free tier
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			APIKey:    "",
			Model:     "claude-haiku-3-5-20241022",
			MaxTokens: 8192,
			Timeout:   "5m",
		},
		LLM: LLMConfig{
			PromptProvider: LLMProviderGemini,
		},
		Discovery: DiscoveryConfig{
			SelfBrand:       "",
			CompetitorsPath: "./competitors.json",
			DebugDir:        "./data/discovery_debug",
			MaxAttempts:     5,
			BatchSize:       5,
		},
		Collector: CollectorConfig{
			MinContentLength: 300,
			ProbeTimeout:     10 * time.Second,
			ResolveTimeout:   10 * time.Second,
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Marketplace: MarketplaceConfig{
			APIKey:         "",
			Endpoint:       "https://www.searchapi.io/api/v1/search",
			Engine:         "shopee",
			RateLimit:      1 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Extractor: ExtractorConfig{
			RequestTimeout: 30 * time.Second,
			MaxBodySize:    10 * 1024 * 1024, // 10MB
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
	}
}

// LoadFromFiles loads configuration from files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier
// files, environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("REPERIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("REPERIO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("REPERIO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("REPERIO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("REPERIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("REPERIO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// API keys follow the providers' conventional variable names with a
	// REPERIO_ prefixed override.
	if key := os.Getenv("REPERIO_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if model := os.Getenv("REPERIO_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	if key := os.Getenv("REPERIO_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}

	if provider := os.Getenv("REPERIO_LLM_PROMPT_PROVIDER"); provider != "" {
		config.LLM.PromptProvider = LLMProvider(provider)
	}

	if brand := os.Getenv("REPERIO_SELF_BRAND"); brand != "" {
		config.Discovery.SelfBrand = brand
	}
	if path := os.Getenv("REPERIO_COMPETITORS_PATH"); path != "" {
		config.Discovery.CompetitorsPath = path
	}

	if key := os.Getenv("REPERIO_MARKETPLACE_API_KEY"); key != "" {
		config.Marketplace.APIKey = key
	} else if key := os.Getenv("SEARCHAPI_API_KEY"); key != "" {
		config.Marketplace.APIKey = key
	}
	if endpoint := os.Getenv("REPERIO_MARKETPLACE_ENDPOINT"); endpoint != "" {
		config.Marketplace.Endpoint = endpoint
	}

	if minLen := os.Getenv("REPERIO_COLLECTOR_MIN_CONTENT_LENGTH"); minLen != "" {
		if ml, err := strconv.Atoi(minLen); err == nil {
			config.Collector.MinContentLength = ml
		}
	}
	if probeTimeout := os.Getenv("REPERIO_COLLECTOR_PROBE_TIMEOUT"); probeTimeout != "" {
		if pt, err := time.ParseDuration(probeTimeout); err == nil {
			config.Collector.ProbeTimeout = pt
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// GeminiTimeout returns the parsed Gemini operation timeout.
func (c *Config) GeminiTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.Gemini.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid gemini timeout duration '%s': %w", c.Gemini.Timeout, err)
	}
	return timeout, nil
}
