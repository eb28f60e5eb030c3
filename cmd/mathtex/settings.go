package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alnah/go-mathtex"
	"github.com/alnah/go-mathtex/internal/config"
	"github.com/alnah/go-mathtex/internal/fileutil"
	"github.com/charmbracelet/log"
)

// defaultFormat is used when neither flags, env nor config name one.
const defaultFormat = mathtex.FormatPNG

// configNotFoundError remembers the config name that could not be resolved.
type configNotFoundError struct {
	name string
	err  error
}

func (e *configNotFoundError) Error() string { return e.err.Error() }
func (e *configNotFoundError) Unwrap() error { return e.err }

// loadSettings loads the config named by flag or MATHTEX_CONFIG and applies
// environment overrides. Flags are merged by the caller.
func loadSettings(configFlag string) (*config.Config, *envConfig, error) {
	envCfg := loadEnvConfig()

	name := configFlag
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name) {
				err = &configNotFoundError{name: name, err: err}
			}
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, envCfg, nil
}

// mergeLLMFlags copies set model flags into cfg (CLI wins).
func mergeLLMFlags(f llmFlags, cfg *config.Config) {
	if f.provider != "" {
		cfg.LLM.Provider = f.provider
	}
	if f.model != "" {
		cfg.LLM.Model = f.model
	}
	if f.baseURL != "" {
		cfg.LLM.BaseURL = f.baseURL
	}
	if f.maxTokens != 0 {
		cfg.LLM.MaxTokens = f.maxTokens
	}
}

// mergeFlags copies set convert flags into cfg (CLI wins).
func mergeFlags(f *convertFlags, cfg *config.Config) {
	mergeLLMFlags(f.llm, cfg)

	if f.timeout != "" {
		cfg.LLM.Timeout = f.timeout
		cfg.Renderer.Timeout = f.timeout
	}
	if f.format != "" {
		cfg.Output.Format = f.format
	}

	if f.renderer.loadTimeout != "" {
		cfg.Renderer.LoadTimeout = f.renderer.loadTimeout
	}
	if f.renderer.browserBin != "" {
		cfg.Renderer.BrowserBin = f.renderer.browserBin
	}
	if f.renderer.noSandbox {
		cfg.Renderer.NoSandbox = true
	}

	if f.page.size != "" {
		cfg.Page.Size = f.page.size
	}
	if f.page.orientation != "" {
		cfg.Page.Orientation = f.page.orientation
	}
	if f.page.margin != 0 {
		cfg.Page.Margin = f.page.margin
	}

	if f.assets.style != "" {
		cfg.Assets.Style = f.assets.style
	}
	if f.assets.template != "" {
		cfg.Assets.Template = f.assets.template
	}
	if f.assets.assetPath != "" {
		cfg.Assets.BasePath = f.assets.assetPath
	}
	if f.assets.highlight != "" {
		cfg.Assets.Highlight = f.assets.highlight
	}
}

// resolveFormat returns the configured output format or the default.
func resolveFormat(cfg *config.Config) (mathtex.Format, error) {
	if cfg.Output.Format == "" {
		return defaultFormat, nil
	}
	return mathtex.ParseFormat(cfg.Output.Format)
}

// apiKeyEnv returns the variable holding the API key for the provider.
func apiKeyEnv(llm config.LLMConfig) string {
	if llm.APIKeyEnv != "" {
		return llm.APIKeyEnv
	}
	if strings.EqualFold(llm.Provider, mathtex.ProviderOpenAI) {
		return "OPENAI_API_KEY"
	}
	return "ANTHROPIC_API_KEY"
}

// buildLLMConfig converts the file settings to the library form.
func buildLLMConfig(llm config.LLMConfig) (mathtex.LLMConfig, error) {
	timeout, err := config.ParseDuration(llm.Timeout)
	if err != nil {
		return mathtex.LLMConfig{}, fmt.Errorf("llm.timeout: %w", err)
	}
	return mathtex.LLMConfig{
		Provider:  llm.Provider,
		Model:     llm.Model,
		MaxTokens: llm.MaxTokens,
		APIKey:    os.Getenv(apiKeyEnv(llm)),
		BaseURL:   llm.BaseURL,
		Timeout:   timeout,
	}, nil
}

// buildPageSettings fills unset page fields with defaults.
// Returns nil when nothing is configured.
func buildPageSettings(p config.PageConfig) *mathtex.PageSettings {
	if p.Size == "" && p.Orientation == "" && p.Margin == 0 {
		return nil
	}
	page := mathtex.DefaultPageSettings()
	if p.Size != "" {
		page.Size = p.Size
	}
	if p.Orientation != "" {
		page.Orientation = p.Orientation
	}
	if p.Margin != 0 {
		page.Margin = p.Margin
	}
	return page
}

// buildOptions turns the merged config into converter options.
// env.Options are appended last so tests can replace the transport.
func buildOptions(cfg *config.Config, logger *log.Logger, env *Environment) ([]mathtex.Option, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	llm, err := buildLLMConfig(cfg.LLM)
	if err != nil {
		return nil, err
	}

	opts := []mathtex.Option{
		mathtex.WithLogger(logger),
		mathtex.WithLLM(llm),
		mathtex.WithEngine(mathtex.EngineAssets{
			Stylesheet: cfg.Renderer.Stylesheet,
			Core:       cfg.Renderer.Core,
			AutoRender: cfg.Renderer.AutoRender,
		}),
		mathtex.WithBrowserBin(cfg.Renderer.BrowserBin),
		mathtex.WithNoSandbox(cfg.Renderer.NoSandbox),
		mathtex.WithAssetPath(cfg.Assets.BasePath),
		mathtex.WithStyle(cfg.Assets.Style),
		mathtex.WithTemplate(cfg.Assets.Template),
		mathtex.WithHighlightStyle(cfg.Assets.Highlight),
		mathtex.WithPageSettings(buildPageSettings(cfg.Page)),
	}

	durations := []struct {
		value string
		apply func(time.Duration) mathtex.Option
	}{
		{cfg.Renderer.Timeout, mathtex.WithTimeout},
		{cfg.Renderer.LoadTimeout, mathtex.WithRendererLoadTimeout},
	}
	for _, d := range durations {
		parsed, err := config.ParseDuration(d.value)
		if err != nil {
			return nil, err
		}
		if parsed > 0 {
			opts = append(opts, d.apply(parsed))
		}
	}

	return append(opts, env.Options...), nil
}
