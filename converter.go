package mathtex

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-mathtex/internal/assets"
	"github.com/alnah/go-mathtex/internal/pipeline"
)

// Converter turns descriptions into rendered documents. It owns one model
// client and one browser page with its RendererLoader.
// Create with NewConverter, call Convert, and Close when done.
//
// Convert is safe for concurrent use; calls that need the page are
// serialized. Use a ConverterPool for parallel rendering.
type Converter struct {
	cfg       converterConfig
	client    Requester
	host      renderHost
	loader    *RendererLoader
	adapter   *RenderAdapter
	highlight *pipeline.SourceHighlighter
	logger    *log.Logger

	mu     sync.Mutex // guards host use and closed
	closed bool
}

// NewConverter creates a Converter. The browser is not started until the
// first conversion that needs it.
// Returns error if the model provider, page settings or host assets are
// invalid.
func NewConverter(opts ...Option) (*Converter, error) {
	cfg := defaultConverterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.page.Validate(); err != nil {
		return nil, err
	}

	client, err := buildRequester(&cfg)
	if err != nil {
		return nil, err
	}

	host := cfg.host
	if host == nil {
		doc, err := buildHostDocument(&cfg)
		if err != nil {
			return nil, err
		}
		host = newRodHost(doc, &cfg)
	}

	loader := NewRendererLoader(host,
		WithEngineAssets(cfg.engine),
		WithLoadTimeout(cfg.loadTimeout),
		WithLoaderLogger(cfg.logger),
	)

	return &Converter{
		cfg:       cfg,
		client:    client,
		host:      host,
		loader:    loader,
		adapter:   NewRenderAdapter(host, loader, cfg.logger),
		highlight: pipeline.NewSourceHighlighter(cfg.highlightStyle),
		logger:    cfg.logger,
	}, nil
}

func buildRequester(cfg *converterConfig) (Requester, error) {
	if cfg.requester != nil {
		return cfg.requester, nil
	}
	completer := cfg.completer
	if completer == nil {
		var err error
		completer, err = NewCompleter(cfg.llm)
		if err != nil {
			return nil, err
		}
	}
	return NewClient(completer, WithClientLogger(cfg.logger)), nil
}

func buildHostDocument(cfg *converterConfig) (string, error) {
	resolver, err := assets.NewAssetResolver(cfg.assetPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	doc, err := assets.BuildHostPage(resolver, cfg.template, cfg.style)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHostPage, err)
	}
	return doc, nil
}

// Convert asks the model for the LaTeX of text and exports it in format f.
//
// For page formats the engine load starts before the model request, so
// both run concurrently. A LaTeX string the engine cannot typeset is not an
// error: the document shows FallbackText and ConvertResult.Fallback is set.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, text string, f Format) (result *ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	req, err := NewRequest(text)
	if err != nil {
		return nil, err
	}
	if _, err := ParseFormat(string(f)); err != nil {
		return nil, err
	}

	if !f.NeedsRenderer() {
		res, err := c.client.Request(ctx, req.Text())
		if err != nil {
			return nil, err
		}
		return exportText(res, f)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.openLocked(ctx); err != nil {
		return nil, err
	}

	res, err := c.client.Request(ctx, req.Text())
	if err != nil {
		return nil, err
	}
	return c.renderLocked(ctx, res, f)
}

// Render exports an existing Result, for callers that drive their own
// Controller.
func (c *Converter) Render(ctx context.Context, res Result, f Format) (result *ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if _, err := ParseFormat(string(f)); err != nil {
		return nil, err
	}
	if res.LaTeX == "" {
		return nil, ErrEmptyLaTeX
	}
	if !f.NeedsRenderer() {
		return exportText(res, f)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.openLocked(ctx); err != nil {
		return nil, err
	}
	return c.renderLocked(ctx, res, f)
}

// openLocked opens the page and starts the engine load.
// Caller must hold c.mu.
func (c *Converter) openLocked(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if err := c.host.Open(ctx); err != nil {
		return err
	}
	c.loader.EnsureLoaded()
	return nil
}

// renderLocked fills the host page with res and exports it.
// Caller must hold c.mu.
func (c *Converter) renderLocked(ctx context.Context, res Result, f Format) (*ConvertResult, error) {
	if err := c.loader.Wait(ctx); err != nil {
		return nil, err
	}

	out, err := c.adapter.Render(ctx, res.LaTeX, MountMath)
	if err != nil {
		return nil, fmt.Errorf("rendering: %w", err)
	}
	if out.Fallback {
		c.logger.Warn("LaTeX could not be rendered", "err", out.Cause)
	}

	if err := c.writeSource(ctx, res.LaTeX); err != nil {
		return nil, fmt.Errorf("writing source: %w", err)
	}
	if err := c.adapter.RenderProse(ctx, res.Explanation, MountExplanation); err != nil {
		return nil, fmt.Errorf("writing explanation: %w", err)
	}

	data, err := c.host.Export(ctx, f, c.cfg.page)
	if err != nil {
		return nil, err
	}

	return &ConvertResult{
		Result:    res,
		Format:    f,
		Output:    data,
		Fallback:  out.Fallback,
		RenderErr: out.Cause,
	}, nil
}

// writeSource puts the highlighted source in the source mount, or the raw
// source when highlighting fails.
func (c *Converter) writeSource(ctx context.Context, latex string) error {
	markup, err := c.highlight.ToHTML(ctx, latex)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Debug("highlighting failed, writing plain source", "err", err)
		return c.host.SetText(ctx, MountSource, latex)
	}
	return c.host.SetHTML(ctx, MountSource, markup)
}

func exportText(res Result, f Format) (*ConvertResult, error) {
	var data []byte
	switch f {
	case FormatTeX:
		data = []byte(res.LaTeX + "\n")
	case FormatJSON:
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExport, err)
		}
		data = append(b, '\n')
	default:
		return nil, fmt.Errorf("%w: %q needs the renderer", ErrInvalidFormat, f)
	}
	return &ConvertResult{Result: res, Format: f, Output: data}, nil
}

// Controller returns a new Controller backed by this converter's client.
func (c *Converter) Controller() *Controller {
	return NewController(c.client, WithControllerLogger(c.logger))
}

// Readiness reports the engine load state of this converter's page.
func (c *Converter) Readiness() Readiness {
	return c.loader.Readiness()
}

// Close stops the engine load, then releases browser resources. Further
// conversions needing the page return ErrClosed.
func (c *Converter) Close() error {
	c.loader.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.host.Close()
}
