package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alnah/go-mathtex/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // MATHTEX_CONFIG: config file name or path
	Provider   string // MATHTEX_PROVIDER: anthropic, openai
	Model      string // MATHTEX_MODEL: model identifier
	BaseURL    string // MATHTEX_BASE_URL: OpenAI-compatible endpoint
	Timeout    string // MATHTEX_TIMEOUT: request and browser timeout
	Format     string // MATHTEX_FORMAT: output format
	OutputDir  string // MATHTEX_OUTPUT_DIR: default output directory
	Workers    int    // MATHTEX_WORKERS: parallel workers for batch
}

// knownEnvVars lists valid MATHTEX_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MATHTEX_CONFIG":     true,
	"MATHTEX_PROVIDER":   true,
	"MATHTEX_MODEL":      true,
	"MATHTEX_BASE_URL":   true,
	"MATHTEX_TIMEOUT":    true,
	"MATHTEX_FORMAT":     true,
	"MATHTEX_OUTPUT_DIR": true,
	"MATHTEX_WORKERS":    true,
	"MATHTEX_CONTAINER":  true, // doctor override
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized MATHTEX_* values.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("MATHTEX_CONFIG"),
		Provider:   os.Getenv("MATHTEX_PROVIDER"),
		Model:      os.Getenv("MATHTEX_MODEL"),
		BaseURL:    os.Getenv("MATHTEX_BASE_URL"),
		Timeout:    os.Getenv("MATHTEX_TIMEOUT"),
		Format:     os.Getenv("MATHTEX_FORMAT"),
		OutputDir:  os.Getenv("MATHTEX_OUTPUT_DIR"),
	}

	// Parse int for workers
	if workers := os.Getenv("MATHTEX_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MATHTEX_* variables.
// Helps catch typos like MATHTEX_MODLE instead of MATHTEX_MODEL.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "MATHTEX_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Provider != "" && cfg.LLM.Provider == "" {
		cfg.LLM.Provider = env.Provider
	}
	if env.Model != "" && cfg.LLM.Model == "" {
		cfg.LLM.Model = env.Model
	}
	if env.BaseURL != "" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = env.BaseURL
	}
	if env.Timeout != "" {
		if cfg.LLM.Timeout == "" {
			cfg.LLM.Timeout = env.Timeout
		}
		if cfg.Renderer.Timeout == "" {
			cfg.Renderer.Timeout = env.Timeout
		}
	}
	if env.Format != "" && cfg.Output.Format == "" {
		cfg.Output.Format = env.Format
	}
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
}
