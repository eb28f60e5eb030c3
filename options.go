package mathtex

import (
	"time"

	"github.com/charmbracelet/log"
)

// Option configures a Converter.
type Option func(*converterConfig)

// converterConfig holds Converter construction settings.
type converterConfig struct {
	timeout        time.Duration
	loadTimeout    time.Duration
	engine         EngineAssets
	browserBin     string
	noSandbox      bool
	assetPath      string
	style          string
	template       string
	highlightStyle string
	page           *PageSettings
	logger         *log.Logger
	llm            LLMConfig
	completer      Completer
	requester      Requester
	host           renderHost // tests only
}

// defaultTimeout bounds each browser operation.
const defaultTimeout = 30 * time.Second

func defaultConverterConfig() converterConfig {
	return converterConfig{
		timeout:     defaultTimeout,
		loadTimeout: defaultLoadTimeout,
		engine:      DefaultEngineAssets(),
		logger:      discardLogger(),
	}
}

// WithTimeout sets the timeout of each browser operation.
// Panics if d <= 0 (programmer error).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mathtex: WithTimeout duration must be positive")
	}
	return func(c *converterConfig) {
		c.timeout = d
	}
}

// WithRendererLoadTimeout bounds the one-time engine load sequence.
// Panics if d <= 0 (programmer error).
func WithRendererLoadTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mathtex: WithRendererLoadTimeout duration must be positive")
	}
	return func(c *converterConfig) {
		c.loadTimeout = d
	}
}

// WithEngine overrides where the KaTeX resources are loaded from.
// Empty fields keep their defaults.
func WithEngine(a EngineAssets) Option {
	return func(c *converterConfig) {
		if a.Stylesheet != "" {
			c.engine.Stylesheet = a.Stylesheet
		}
		if a.Core != "" {
			c.engine.Core = a.Core
		}
		if a.AutoRender != "" {
			c.engine.AutoRender = a.AutoRender
		}
	}
}

// WithBrowserBin uses an installed Chrome instead of rod's download.
// ROD_BROWSER_BIN is used when unset.
func WithBrowserBin(path string) Option {
	return func(c *converterConfig) {
		c.browserBin = path
	}
}

// WithNoSandbox disables the Chrome sandbox (containers, CI).
func WithNoSandbox(disable bool) Option {
	return func(c *converterConfig) {
		c.noSandbox = disable
	}
}

// WithAssetPath loads host styles and templates from dir, falling back to
// the built-in ones.
func WithAssetPath(dir string) Option {
	return func(c *converterConfig) {
		c.assetPath = dir
	}
}

// WithStyle selects the host page style by name.
func WithStyle(name string) Option {
	return func(c *converterConfig) {
		c.style = name
	}
}

// WithTemplate selects the host page template by name.
func WithTemplate(name string) Option {
	return func(c *converterConfig) {
		c.template = name
	}
}

// WithHighlightStyle selects the chroma style of the source card.
func WithHighlightStyle(name string) Option {
	return func(c *converterConfig) {
		c.highlightStyle = name
	}
}

// WithPageSettings sets the PDF page layout.
func WithPageSettings(p *PageSettings) Option {
	return func(c *converterConfig) {
		c.page = p
	}
}

// WithLogger sets the logger shared by the converter's components.
func WithLogger(l *log.Logger) Option {
	return func(c *converterConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLLM configures the model provider used to build the default client.
func WithLLM(cfg LLMConfig) Option {
	return func(c *converterConfig) {
		c.llm = cfg
	}
}

// WithCompleter replaces the model transport. WithLLM is then ignored.
func WithCompleter(comp Completer) Option {
	return func(c *converterConfig) {
		c.completer = comp
	}
}

// WithRequester replaces the whole conversion client.
// WithLLM and WithCompleter are then ignored.
func WithRequester(r Requester) Option {
	return func(c *converterConfig) {
		c.requester = r
	}
}

// withRenderHost replaces the browser page. Used by tests.
func withRenderHost(h renderHost) Option {
	return func(c *converterConfig) {
		c.host = h
	}
}
