// Package config loads the agent configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"drivethru/internal/grounding"
	"drivethru/internal/menu"
)

// Config holds all drive-thru agent configuration.
type Config struct {
	// Agent identity and persona
	Agent AgentConfig `yaml:"agent"`

	// Menu catalog source
	Menu MenuConfig `yaml:"menu"`

	// LLM backend
	LLM LLMConfig `yaml:"llm"`

	// Grounding context injection
	Grounding GroundingConfig `yaml:"grounding"`

	// Keyword intercept fast path
	Intercept InterceptConfig `yaml:"intercept"`

	// Completed order handling
	Orders OrdersConfig `yaml:"orders"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// AgentConfig names the agent and sets its spoken persona.
type AgentConfig struct {
	Name string `yaml:"name"`

	// Persona is the system prompt seeded at the start of every session.
	Persona string `yaml:"persona"`

	// MaxToolRounds bounds how many tool-call rounds a single customer
	// turn may trigger before the agent must answer in plain text.
	MaxToolRounds int `yaml:"max_tool_rounds"`
}

// MenuConfig locates the menu catalog.
type MenuConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig configures the chat completion backend.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// GroundingConfig tunes the context injection pass.
type GroundingConfig struct {
	// MaxContextItems caps how many matched menu items are injected per
	// turn. Clamped to [10, 100].
	MaxContextItems int `yaml:"max_context_items"`

	// Threshold is the minimum fuzzy score for an item to be injected.
	Threshold int `yaml:"threshold"`
}

// InterceptConfig configures the canned-response fast path.
type InterceptConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Phrases  []string `yaml:"phrases"`
	Response string   `yaml:"response"`
}

// OrdersConfig configures completed order persistence.
type OrdersConfig struct {
	// DatabasePath is the SQLite archive location.
	DatabasePath string `yaml:"database_path"`

	// OutputDir receives per-session event logs.
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty logs to stderr
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Name: "drivethru",
			Persona: "You are a drive-thru order taker for a fast-food restaurant. " +
				"Be quick, friendly, and concise. Only discuss items that are on the menu. " +
				"Use the order tools for every change to the order; never claim a change " +
				"you did not make with a tool. Confirm each change briefly and ask if " +
				"there is anything else.",
			MaxToolRounds: 8,
		},

		Menu: MenuConfig{
			Path: "menu.json",
		},

		LLM: LLMConfig{
			Model:   "gpt-4.1-mini",
			BaseURL: "https://api.openai.com/v1",
			Timeout: "60s",
		},

		Grounding: GroundingConfig{
			MaxContextItems: grounding.DefaultMaxContextItems,
			Threshold:       menu.DefaultThreshold,
		},

		Intercept: InterceptConfig{
			Enabled:  true,
			Phrases:  append([]string(nil), grounding.DefaultInterceptPhrases...),
			Response: grounding.DefaultInterceptResponse,
		},

		Orders: OrdersConfig{
			DatabasePath: "data/orders.db",
			OutputDir:    "output",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file is not an
// error: defaults plus environment overrides are returned instead.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Environment variables override file values.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("DRIVETHRU_API_KEY"); key != "" {
		c.LLM.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("DRIVETHRU_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if url := os.Getenv("DRIVETHRU_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if path := os.Getenv("DRIVETHRU_MENU"); path != "" {
		c.Menu.Path = path
	}
	if path := os.Getenv("DRIVETHRU_DB"); path != "" {
		c.Orders.DatabasePath = path
	}
	if dir := os.Getenv("DRIVETHRU_OUTPUT"); dir != "" {
		c.Orders.OutputDir = dir
	}
	if level := os.Getenv("DRIVETHRU_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetLLMTimeout parses the LLM timeout, defaulting to 60 seconds.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// Validate checks the configuration for basic sanity.
func (c *Config) Validate() error {
	if c.Menu.Path == "" {
		return fmt.Errorf("menu.path is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.Agent.MaxToolRounds < 1 {
		return fmt.Errorf("agent.max_tool_rounds must be at least 1")
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("llm.timeout is not a duration: %w", err)
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
