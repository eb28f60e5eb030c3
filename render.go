package mathtex

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// FallbackText replaces the mount content when the engine cannot render.
const FallbackText = "Render error"

// ReadinessSource reports engine readiness. RendererLoader implements it.
type ReadinessSource interface {
	Readiness() Readiness
}

// Compile-time interface check.
var _ ReadinessSource = (*RendererLoader)(nil)

// Outcome describes how a Render call ended.
type Outcome struct {
	// Fallback is true when FallbackText was written instead of math.
	Fallback bool
	// Cause wraps ErrRender when Fallback is true.
	Cause error
}

// RenderAdapter typesets LaTeX into a Surface and never lets an engine
// failure escape: the mount shows FallbackText instead.
type RenderAdapter struct {
	surface   Surface
	readiness ReadinessSource
	logger    *log.Logger
}

// NewRenderAdapter creates a RenderAdapter.
// Panics if surface or readiness is nil (programmer error).
func NewRenderAdapter(surface Surface, readiness ReadinessSource, logger *log.Logger) *RenderAdapter {
	if surface == nil || readiness == nil {
		panic("mathtex: NewRenderAdapter requires a Surface and a ReadinessSource")
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &RenderAdapter{surface: surface, readiness: readiness, logger: logger}
}

// Render clears the mount and typesets latex in display mode.
//
// It returns ErrRendererNotReady or ErrEmptyLaTeX when called too early or
// with nothing to render. Engine errors and panics do not produce an error:
// the mount gets FallbackText and Outcome reports the cause. A non-nil error
// otherwise means the surface itself failed.
func (a *RenderAdapter) Render(ctx context.Context, latex string, m Mount) (Outcome, error) {
	if a.readiness.Readiness() != Ready {
		return Outcome{}, ErrRendererNotReady
	}
	if strings.TrimSpace(latex) == "" {
		return Outcome{}, ErrEmptyLaTeX
	}

	if err := a.surface.Clear(ctx, m); err != nil {
		return Outcome{}, err
	}

	err := a.renderMath(ctx, m, latex)
	if err == nil {
		return Outcome{}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Outcome{}, ctxErr
	}

	out := Outcome{Fallback: true, Cause: fmt.Errorf("%w: %v", ErrRender, err)}
	a.logger.Debug("render failed, showing fallback", "mount", m, "err", err)
	if err := a.surface.SetText(ctx, m, FallbackText); err != nil {
		return out, err
	}
	return out, nil
}

// RenderProse writes text into the mount and typesets any inline math it
// contains. When the engine is not ready or auto-render fails, the plain
// text stays. Only a failure to write the text is returned.
func (a *RenderAdapter) RenderProse(ctx context.Context, text string, m Mount) error {
	if err := a.surface.SetText(ctx, m, text); err != nil {
		return err
	}
	a.Typeset(ctx, m)
	return nil
}

// Typeset runs auto-render over content already in the mount.
// It reports whether the engine ran without error.
func (a *RenderAdapter) Typeset(ctx context.Context, m Mount) bool {
	if a.readiness.Readiness() != Ready {
		return false
	}
	err := guard(func() error { return a.surface.AutoRender(ctx, m) })
	if err != nil {
		a.logger.Debug("auto-render failed, keeping plain text", "mount", m, "err", err)
		return false
	}
	return true
}

func (a *RenderAdapter) renderMath(ctx context.Context, m Mount, latex string) error {
	return guard(func() error {
		return a.surface.RenderMath(ctx, m, latex, RenderOptions{DisplayMode: true, ThrowOnError: false})
	})
}

// guard converts a panic in fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
