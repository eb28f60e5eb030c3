package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/alnah/go-mathtex"
	"github.com/alnah/go-mathtex/internal/assets"
	"github.com/alnah/go-mathtex/internal/config"
	"github.com/alnah/go-mathtex/internal/hints"
)

// Exit codes for mathtex CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome or renderer errors
	ExitModel   = 5 // Model transport or reply errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser/renderer errors (exit 4)
	if errors.Is(err, mathtex.ErrBrowserConnect) ||
		errors.Is(err, mathtex.ErrPageCreate) ||
		errors.Is(err, mathtex.ErrPageLoad) ||
		errors.Is(err, mathtex.ErrExport) ||
		errors.Is(err, mathtex.ErrRendererUnavailable) {
		return ExitBrowser
	}

	// Model errors (exit 5)
	if errors.Is(err, mathtex.ErrTransport) ||
		errors.Is(err, mathtex.ErrParse) {
		return ExitModel
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, mathtex.ErrEmptyInput) ||
		errors.Is(err, mathtex.ErrInvalidFormat) ||
		errors.Is(err, mathtex.ErrInvalidPageSize) ||
		errors.Is(err, mathtex.ErrInvalidOrientation) ||
		errors.Is(err, mathtex.ErrInvalidMargin) ||
		errors.Is(err, mathtex.ErrInvalidAssetPath) ||
		errors.Is(err, mathtex.ErrHostPage) ||
		errors.Is(err, mathtex.ErrUnknownProvider) ||
		errors.Is(err, mathtex.ErrMissingAPIKey) ||
		errors.Is(err, mathtex.ErrInvalidMaxTokens) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrInvalidWorkerCount) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var notFound *configNotFoundError
	switch {
	case errors.As(err, &notFound):
		return hints.ForConfigNotFound(config.SearchPaths(notFound.name))
	case errors.Is(err, mathtex.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, mathtex.ErrRendererUnavailable):
		return hints.ForRendererLoad()
	case errors.Is(err, mathtex.ErrMissingAPIKey):
		if strings.Contains(err.Error(), mathtex.ProviderOpenAI) {
			return hints.ForMissingAPIKey(mathtex.ProviderOpenAI)
		}
		return hints.ForMissingAPIKey(mathtex.ProviderAnthropic)
	case errors.Is(err, assets.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.EmbeddedStyles())
	case errors.Is(err, mathtex.ErrParse):
		return hints.ForParse()
	case errors.Is(err, mathtex.ErrTransport), errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}
