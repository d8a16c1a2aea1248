// Package config loads runtime settings from an optional config.yaml, the
// environment, and a .env file, in that order of increasing precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FakeModel selects the scripted offline engine instead of Gemini.
const FakeModel = "fake"

// Config holds everything a negotiation run needs to start.
type Config struct {
	Model        string  `mapstructure:"MODEL"`
	GeminiAPIKey string  `mapstructure:"GEMINI_API_KEY"`
	GeminiRPS    float64 `mapstructure:"GEMINI_RPS"`
	GeminiBurst  int     `mapstructure:"GEMINI_BURST"`

	// Simulation swaps the traveler and guide counterparts for
	// engine-backed personas instead of stdin.
	Simulation        bool   `mapstructure:"SIMULATION"`
	SimulationProfile string `mapstructure:"SIMULATION_PROFILE"`

	// SkipCollect resumes the stored traveler named by TravelerID instead
	// of starting a fresh intake conversation.
	SkipCollect bool   `mapstructure:"SKIP_COLLECT"`
	TravelerID  string `mapstructure:"TRAVELER_ID"`

	DataDir  string `mapstructure:"DATA_DIR"`
	LogDir   string `mapstructure:"LOG_DIR"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads config.yaml if present, then lets environment variables (and a
// .env file) override it. Callers apply their own overrides on top and then
// call Validate.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv values survive Unmarshal.
	v.SetDefault("MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_RPS", 1.0)
	v.SetDefault("GEMINI_BURST", 1)
	v.SetDefault("SIMULATION", true)
	v.SetDefault("SIMULATION_PROFILE", "")
	v.SetDefault("SKIP_COLLECT", false)
	v.SetDefault("TRAVELER_ID", "")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("LOG_LEVEL", "info")

	// A config file is optional; the environment alone is enough.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// UseFake reports whether the scripted offline engine was requested.
func (c *Config) UseFake() bool {
	return strings.EqualFold(c.Model, FakeModel)
}

// Validate checks that the settings are enough to start a run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("config: MODEL must be set")
	}
	if !c.UseFake() && strings.TrimSpace(c.GeminiAPIKey) == "" {
		return fmt.Errorf("config: GEMINI_API_KEY is required for model %q", c.Model)
	}
	if c.SkipCollect && strings.TrimSpace(c.TravelerID) == "" {
		return fmt.Errorf("config: SKIP_COLLECT requires TRAVELER_ID")
	}
	return nil
}
