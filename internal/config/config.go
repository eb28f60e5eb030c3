package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-mathtex/internal/fileutil"
	"github.com/alnah/go-mathtex/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxProviderLength    = 20   // "anthropic", "openai"
	MaxModelLength       = 100  // model identifiers
	MaxURLLength         = 2048 // Browser limit
	MaxPathLength        = 4096 // PATH_MAX
	MaxEnvNameLength     = 100  // environment variable name
	MaxDurationLength    = 20   // "30s", "2m"
	MaxNameLength        = 50   // style, template, highlight names
	MaxFormatLength      = 10   // "html", "json"
	MaxPageSizeLength    = 10   // "letter", "a4", "legal"
	MaxOrientationLength = 10   // "portrait", "landscape"
)

// Output formats accepted by output.format.
var knownFormats = []string{"html", "png", "pdf", "tex", "json"}

// DirName is the directory under the user config dir searched for configs.
const DirName = "go-mathtex"

// Config holds all configuration for conversions.
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Renderer RendererConfig `yaml:"renderer"`
	Output   OutputConfig   `yaml:"output"`
	Page     PageConfig     `yaml:"page"`
	Assets   AssetsConfig   `yaml:"assets"`
}

// LLMConfig selects the model endpoint.
type LLMConfig struct {
	Provider  string `yaml:"provider"`  // "anthropic" (default) or "openai"
	Model     string `yaml:"model"`     // Empty = provider default
	MaxTokens int    `yaml:"maxTokens"` // 0 = 1000
	BaseURL   string `yaml:"baseURL"`   // Empty = provider endpoint
	APIKeyEnv string `yaml:"apiKeyEnv"` // Env var holding the key (default per provider)
	Timeout   string `yaml:"timeout"`   // Go duration, e.g. "60s"
}

// RendererConfig locates KaTeX and the browser that runs it.
type RendererConfig struct {
	Stylesheet  string `yaml:"stylesheet"`  // Empty = KaTeX CDN
	Core        string `yaml:"core"`        // Empty = KaTeX CDN
	AutoRender  string `yaml:"autoRender"`  // Empty = KaTeX CDN
	LoadTimeout string `yaml:"loadTimeout"` // Go duration, e.g. "30s"
	Timeout     string `yaml:"timeout"`     // Per browser operation
	BrowserBin  string `yaml:"browserBin"`  // Empty = ROD_BROWSER_BIN or rod download
	NoSandbox   bool   `yaml:"noSandbox"`
}

// OutputConfig defines output options.
type OutputConfig struct {
	Format     string `yaml:"format"`     // html, png, pdf, tex, json (default: png)
	DefaultDir string `yaml:"defaultDir"` // Empty = current directory
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal" (default: "letter")
	Orientation string  `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      float64 `yaml:"margin"`      // inches (default: 0.5)
}

// AssetsConfig defines host page asset options.
type AssetsConfig struct {
	BasePath  string `yaml:"basePath"`  // Empty = embedded assets only
	Style     string `yaml:"style"`     // Host style name (default: "default")
	Template  string `yaml:"template"`  // Host template name (default: "host")
	Highlight string `yaml:"highlight"` // Chroma style for the source card
}

// Validate checks field lengths and value formats.
// Called by LoadConfig; available for configs built in code.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"llm.provider", c.LLM.Provider, MaxProviderLength},
		{"llm.model", c.LLM.Model, MaxModelLength},
		{"llm.baseURL", c.LLM.BaseURL, MaxURLLength},
		{"llm.apiKeyEnv", c.LLM.APIKeyEnv, MaxEnvNameLength},
		{"llm.timeout", c.LLM.Timeout, MaxDurationLength},
		{"renderer.stylesheet", c.Renderer.Stylesheet, MaxURLLength},
		{"renderer.core", c.Renderer.Core, MaxURLLength},
		{"renderer.autoRender", c.Renderer.AutoRender, MaxURLLength},
		{"renderer.loadTimeout", c.Renderer.LoadTimeout, MaxDurationLength},
		{"renderer.timeout", c.Renderer.Timeout, MaxDurationLength},
		{"renderer.browserBin", c.Renderer.BrowserBin, MaxPathLength},
		{"output.format", c.Output.Format, MaxFormatLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"page.size", c.Page.Size, MaxPageSizeLength},
		{"page.orientation", c.Page.Orientation, MaxOrientationLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"assets.style", c.Assets.Style, MaxNameLength},
		{"assets.template", c.Assets.Template, MaxNameLength},
		{"assets.highlight", c.Assets.Highlight, MaxNameLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("%w: llm.maxTokens must not be negative, got %d", ErrInvalidValue, c.LLM.MaxTokens)
	}

	durations := []struct{ name, value string }{
		{"llm.timeout", c.LLM.Timeout},
		{"renderer.loadTimeout", c.Renderer.LoadTimeout},
		{"renderer.timeout", c.Renderer.Timeout},
	}
	for _, d := range durations {
		if _, err := ParseDuration(d.value); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}

	engine := []struct{ name, value string }{
		{"renderer.stylesheet", c.Renderer.Stylesheet},
		{"renderer.core", c.Renderer.Core},
		{"renderer.autoRender", c.Renderer.AutoRender},
	}
	for _, e := range engine {
		if e.value != "" && !fileutil.IsURL(e.value) && !strings.HasPrefix(e.value, "file://") {
			return fmt.Errorf("%w: %s must be an http(s) or file:// URL, got %q", ErrInvalidValue, e.name, e.value)
		}
	}

	if c.Output.Format != "" && !isKnownFormat(c.Output.Format) {
		return fmt.Errorf("%w: output.format %q (must be one of %s)", ErrInvalidValue, c.Output.Format, strings.Join(knownFormats, ", "))
	}

	return nil
}

// ParseDuration parses an optional positive Go duration; "" yields 0.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a duration", ErrInvalidValue, s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidValue, s)
	}
	return d, nil
}

func isKnownFormat(f string) bool {
	f = strings.ToLower(f)
	for _, known := range knownFormats {
		if f == known {
			return true
		}
	}
	return false
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given:
// every field empty, so library defaults apply.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// A value containing a path separator is a file path; anything else is a
// name searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SearchPaths lists where a config name is looked up, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, DirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing SearchPaths entry.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yamlutil.Marshal(cfg)
}
