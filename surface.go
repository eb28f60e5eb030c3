package mathtex

import (
	"context"

	"github.com/alnah/go-mathtex/internal/assets"
)

// Mount identifies an element of the render host by id.
type Mount string

// Mounts provided by every host page.
const (
	MountResult      Mount = assets.MountResult
	MountMath        Mount = assets.MountMath
	MountSource      Mount = assets.MountSource
	MountExplanation Mount = assets.MountExplanation
)

// RenderOptions are passed to the engine's render call.
type RenderOptions struct {
	DisplayMode  bool
	ThrowOnError bool
}

// Surface is the document the engine renders into.
type Surface interface {
	// Clear removes every child of the mount.
	Clear(ctx context.Context, m Mount) error
	// RenderMath typesets latex into the mount. An engine error, including
	// one the engine reported inline instead of throwing, is returned.
	RenderMath(ctx context.Context, m Mount, latex string, opts RenderOptions) error
	// SetText replaces the mount content with plain text.
	SetText(ctx context.Context, m Mount, text string) error
	// AutoRender typesets inline math delimiters found in the mount's text.
	AutoRender(ctx context.Context, m Mount) error
}

// renderHost is everything a Converter needs from one browser page.
type renderHost interface {
	EngineHost
	Surface
	Open(ctx context.Context) error
	SetHTML(ctx context.Context, m Mount, html string) error
	Export(ctx context.Context, f Format, page *PageSettings) ([]byte, error)
	Close() error
}
