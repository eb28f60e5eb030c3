package main

import (
	"errors"
	"io"
	"testing"

	"github.com/alnah/go-mathtex"
	"github.com/alnah/go-mathtex/internal/config"
	"github.com/charmbracelet/log"
)

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.LLM.Model = "from-file"
	cfg.Page.Size = "a4"

	mergeFlags(&convertFlags{
		format:  "pdf",
		timeout: "20s",
		llm:     llmFlags{model: "from-flag", maxTokens: 500},
		renderer: rendererFlags{
			noSandbox:   true,
			loadTimeout: "5s",
		},
		page:   pageFlags{orientation: "landscape"},
		assets: assetFlags{highlight: "monokai"},
	}, cfg)

	if cfg.LLM.Model != "from-flag" || cfg.LLM.MaxTokens != 500 {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.LLM.Timeout != "20s" || cfg.Renderer.Timeout != "20s" || cfg.Renderer.LoadTimeout != "5s" {
		t.Errorf("timeouts = %+v / %+v", cfg.LLM, cfg.Renderer)
	}
	if !cfg.Renderer.NoSandbox {
		t.Error("NoSandbox = false, want true")
	}
	if cfg.Page.Size != "a4" || cfg.Page.Orientation != "landscape" {
		t.Errorf("Page = %+v, unset flags must keep file values", cfg.Page)
	}
	if cfg.Output.Format != "pdf" || cfg.Assets.Highlight != "monokai" {
		t.Errorf("Output/Assets = %+v / %+v", cfg.Output, cfg.Assets)
	}
}

func TestBuildPageSettings(t *testing.T) {
	t.Parallel()

	if got := buildPageSettings(config.PageConfig{}); got != nil {
		t.Errorf("empty config = %+v, want nil", got)
	}

	got := buildPageSettings(config.PageConfig{Size: "legal"})
	if got.Size != "legal" || got.Orientation != mathtex.OrientationPortrait || got.Margin != mathtex.DefaultMargin {
		t.Errorf("partial config = %+v", got)
	}
}

func TestAPIKeyEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		llm  config.LLMConfig
		want string
	}{
		{config.LLMConfig{}, "ANTHROPIC_API_KEY"},
		{config.LLMConfig{Provider: "OpenAI"}, "OPENAI_API_KEY"},
		{config.LLMConfig{Provider: "openai", APIKeyEnv: "LOCAL_KEY"}, "LOCAL_KEY"},
	}
	for _, tt := range tests {
		if got := apiKeyEnv(tt.llm); got != tt.want {
			t.Errorf("apiKeyEnv(%+v) = %q, want %q", tt.llm, got, tt.want)
		}
	}
}

func TestResolveFormat(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	if f, err := resolveFormat(cfg); err != nil || f != defaultFormat {
		t.Errorf("default = %v, %v", f, err)
	}
	cfg.Output.Format = "JSON"
	if f, err := resolveFormat(cfg); err != nil || f != mathtex.FormatJSON {
		t.Errorf("JSON = %v, %v", f, err)
	}
	cfg.Output.Format = "svg"
	if _, err := resolveFormat(cfg); !errors.Is(err, mathtex.ErrInvalidFormat) {
		t.Errorf("svg error = %v, want ErrInvalidFormat", err)
	}
}

func TestBuildOptions_MissingKey(t *testing.T) {
	isolateEnv(t)

	opts, err := buildOptions(config.DefaultConfig(), log.New(io.Discard), &Environment{})
	if err != nil {
		t.Fatalf("buildOptions() error = %v", err)
	}
	_, err = mathtex.NewConverter(opts...)
	if !errors.Is(err, mathtex.ErrMissingAPIKey) {
		t.Errorf("NewConverter() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestBuildOptions_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Renderer.LoadTimeout = "never"
	if _, err := buildOptions(cfg, log.New(io.Discard), &Environment{}); !errors.Is(err, config.ErrInvalidValue) {
		t.Errorf("error = %v, want ErrInvalidValue", err)
	}
}
