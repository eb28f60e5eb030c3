package mathtex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mathtex/internal/process"
)

// Compile-time interface check.
var _ renderHost = (*rodHost)(nil)

// rodHost is a headless Chrome page holding the host document.
// Rod downloads Chromium on first run if no browser is found.
// It is not safe for concurrent use; Converter serializes access.
type rodHost struct {
	timeout    time.Duration
	browserBin string
	noSandbox  bool
	document   string
	logger     *log.Logger

	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func newRodHost(document string, cfg *converterConfig) *rodHost {
	return &rodHost{
		timeout:    cfg.timeout,
		browserBin: cfg.browserBin,
		noSandbox:  cfg.noSandbox,
		document:   document,
		logger:     cfg.logger,
	}
}

// ensureBrowser lazily launches and connects to the browser.
func (h *rodHost) ensureBrowser() error {
	if h.browser != nil {
		return nil
	}

	l := launcher.New()

	bin := h.browserBin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// Containers and CI runners cannot use the Chrome sandbox.
	if h.noSandbox || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("CI") == "true" || bin != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		killLauncher(l)
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	h.launcher = l
	h.browser = browser
	h.logger.Debug("browser connected", "pid", l.PID())
	return nil
}

// Open launches the browser if needed and loads the host document once.
func (h *rodHost) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.page != nil {
		return nil
	}
	if err := h.ensureBrowser(); err != nil {
		return err
	}

	page, err := h.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	p := page.Context(ctx).Timeout(h.timeout)
	if err := p.SetDocumentContent(h.document); err != nil {
		_ = page.Close()
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := p.WaitLoad(); err != nil {
		_ = page.Close()
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	h.page = page
	return nil
}

// bound returns the page scoped to ctx and the host timeout.
func (h *rodHost) bound(ctx context.Context) (*rod.Page, error) {
	if h.page == nil {
		return nil, fmt.Errorf("%w: host page not open", ErrPageLoad)
	}
	return h.page.Context(ctx).Timeout(h.timeout), nil
}

func (h *rodHost) eval(ctx context.Context, js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	p, err := h.bound(ctx)
	if err != nil {
		return nil, err
	}
	return p.Eval(js, args...)
}

// EnginePresent reports whether window.katex is defined in the page.
func (h *rodHost) EnginePresent(ctx context.Context) (bool, error) {
	res, err := h.eval(ctx, jsEnginePresent)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

// InjectStylesheet adds a <link> and waits for it to load.
// The page must be open; injection never launches a browser.
func (h *rodHost) InjectStylesheet(ctx context.Context, href string) error {
	p, err := h.bound(ctx)
	if err != nil {
		return err
	}
	return p.AddStyleTag(href, "")
}

// InjectScript adds a <script> and waits for it to execute.
func (h *rodHost) InjectScript(ctx context.Context, src string) error {
	p, err := h.bound(ctx)
	if err != nil {
		return err
	}
	return p.AddScriptTag(src, "")
}

func (h *rodHost) Clear(ctx context.Context, m Mount) error {
	_, err := h.eval(ctx, jsClear, string(m))
	return err
}

func (h *rodHost) RenderMath(ctx context.Context, m Mount, latex string, opts RenderOptions) error {
	res, err := h.eval(ctx, jsRenderMath, string(m), latex, map[string]any{
		"displayMode":  opts.DisplayMode,
		"throwOnError": opts.ThrowOnError,
	})
	if err != nil {
		return err
	}
	// With throwOnError off the engine reports parse errors inline.
	if msg := res.Value.Str(); msg != "" {
		return errors.New(msg)
	}
	return nil
}

func (h *rodHost) SetText(ctx context.Context, m Mount, text string) error {
	_, err := h.eval(ctx, jsSetText, string(m), text)
	return err
}

func (h *rodHost) SetHTML(ctx context.Context, m Mount, markup string) error {
	_, err := h.eval(ctx, jsSetHTML, string(m), markup)
	return err
}

func (h *rodHost) AutoRender(ctx context.Context, m Mount) error {
	_, err := h.eval(ctx, jsAutoRender, string(m))
	return err
}

// Export serializes the current page in format f.
func (h *rodHost) Export(ctx context.Context, f Format, ps *PageSettings) ([]byte, error) {
	p, err := h.bound(ctx)
	if err != nil {
		return nil, err
	}

	switch f {
	case FormatHTML:
		doc, err := p.HTML()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExport, err)
		}
		return []byte("<!DOCTYPE html>\n" + doc), nil

	case FormatPNG:
		el, err := p.Element("#" + string(MountResult))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExport, err)
		}
		png, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExport, err)
		}
		return png, nil

	case FormatPDF:
		reader, err := p.PDF(buildPDFOptions(ps))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExport, err)
		}
		buf, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrExport, err)
		}
		return buf, nil

	default:
		return nil, fmt.Errorf("%w: %q is not a page format", ErrInvalidFormat, f)
	}
}

// Close releases the page, the browser and its process tree.
func (h *rodHost) Close() error {
	var errs []error
	if h.page != nil {
		if err := h.page.Close(); err != nil {
			errs = append(errs, err)
		}
		h.page = nil
	}
	if h.browser != nil {
		if err := h.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		h.browser = nil
	}
	if h.launcher != nil {
		killLauncher(h.launcher)
		h.launcher = nil
	}
	return errors.Join(errs...)
}

func killLauncher(l *launcher.Launcher) {
	process.KillProcessGroup(l.PID())
	l.Kill()
	l.Cleanup()
}

// buildPDFOptions maps page settings to Chrome's print parameters.
func buildPDFOptions(ps *PageSettings) *proto.PagePrintToPDF {
	width, height := ps.dimensions()
	margin := ps.margin()
	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(margin),
		MarginBottom:    floatPtr(margin),
		MarginLeft:      floatPtr(margin),
		MarginRight:     floatPtr(margin),
		PrintBackground: true,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

// Page scripts. Each receives the mount id first and throws when the
// mount does not exist.
const (
	jsEnginePresent = `() => typeof window.katex !== "undefined"`

	jsClear = `(id) => {
	const el = document.getElementById(id);
	if (!el) throw new Error("missing mount " + id);
	el.replaceChildren();
}`

	jsRenderMath = `(id, tex, opts) => {
	const el = document.getElementById(id);
	if (!el) throw new Error("missing mount " + id);
	katex.render(tex, el, {
		displayMode: opts.displayMode,
		throwOnError: opts.throwOnError,
		output: "html",
	});
	const bad = el.querySelector(".katex-error");
	if (!bad) return "";
	return bad.getAttribute("title") || bad.textContent || "render error";
}`

	jsSetText = `(id, text) => {
	const el = document.getElementById(id);
	if (!el) throw new Error("missing mount " + id);
	el.textContent = text;
}`

	jsSetHTML = `(id, html) => {
	const el = document.getElementById(id);
	if (!el) throw new Error("missing mount " + id);
	el.innerHTML = html;
}`

	jsAutoRender = `(id) => {
	const el = document.getElementById(id);
	if (!el) throw new Error("missing mount " + id);
	renderMathInElement(el, {
		delimiters: [
			{left: "$$", right: "$$", display: true},
			{left: "\\[", right: "\\]", display: true},
			{left: "\\(", right: "\\)", display: false},
			{left: "$", right: "$", display: false},
		],
		throwOnError: false,
	});
}`
)
