package mathtex

import "errors"

// Sentinel errors for library operations.
var (
	// Conversion errors. ErrTransport and ErrParse are the two failure kinds a
	// conversion can end in; both reach users as GenericFailureMessage.
	ErrEmptyInput = errors.New("description cannot be empty")
	ErrTransport  = errors.New("model request failed")
	ErrParse      = errors.New("model reply could not be parsed")

	// Rendering errors. ErrRender never leaves RenderAdapter as an error
	// return; it is recorded in Outcome.Cause.
	ErrRender              = errors.New("LaTeX rendering failed")
	ErrRendererNotReady    = errors.New("renderer is not ready")
	ErrRendererUnavailable = errors.New("renderer is unavailable")
	ErrEmptyLaTeX          = errors.New("LaTeX cannot be empty")

	// Browser errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrExport         = errors.New("export failed")
	ErrClosed         = errors.New("converter is closed")

	// Page and asset errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
	ErrInvalidAssetPath   = errors.New("invalid asset path")
	ErrHostPage           = errors.New("failed to build host page")

	// Configuration errors.
	ErrUnknownProvider  = errors.New("unknown model provider")
	ErrMissingAPIKey    = errors.New("missing API key")
	ErrInvalidFormat    = errors.New("invalid output format")
	ErrInvalidMaxTokens = errors.New("invalid max tokens")
)
