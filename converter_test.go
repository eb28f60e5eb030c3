package mathtex

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeRenderHost is a page without a browser. Export reports the format
// and what the math mount holds.
type fakeRenderHost struct {
	*fakeEngineHost
	*fakeSurface

	mu        sync.Mutex
	openErr   error
	exportErr error
	opens     int
	closes    int
	html      map[Mount]string
}

func newFakeRenderHost() *fakeRenderHost {
	return &fakeRenderHost{
		fakeEngineHost: &fakeEngineHost{},
		fakeSurface:    newFakeSurface(),
		html:           make(map[Mount]string),
	}
}

func (h *fakeRenderHost) Open(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opens++
	return h.openErr
}

func (h *fakeRenderHost) SetHTML(_ context.Context, m Mount, html string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.html[m] = html
	return nil
}

func (h *fakeRenderHost) Export(_ context.Context, f Format, _ *PageSettings) ([]byte, error) {
	if h.exportErr != nil {
		return nil, h.exportErr
	}
	return []byte(string(f) + "|" + h.Content(MountMath)), nil
}

func (h *fakeRenderHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	return nil
}

func (h *fakeRenderHost) Opens() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opens
}

func (h *fakeRenderHost) HTML(m Mount) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.html[m]
}

const areaReply = `{"latex": "\\pi r^{2}", "explanation": "Area of a circle with radius $r$."}`

func newTestConverter(t *testing.T, host *fakeRenderHost, comp *fakeCompleter, opts ...Option) *Converter {
	t.Helper()
	opts = append([]Option{
		withRenderHost(host),
		WithCompleter(comp),
		WithEngine(testAssets),
	}, opts...)
	conv, err := NewConverter(opts...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { _ = conv.Close() })
	return conv
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ----- TestConverter_Convert - Text formats -----

func TestConverter_ConvertTextFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format Format
		check  func(t *testing.T, out []byte)
	}{
		{
			name:   "tex is the bare source",
			format: FormatTeX,
			check: func(t *testing.T, out []byte) {
				if string(out) != "\\pi r^{2}\n" {
					t.Errorf("Output = %q", out)
				}
			},
		},
		{
			name:   "json carries both fields",
			format: FormatJSON,
			check: func(t *testing.T, out []byte) {
				var got Result
				if err := json.Unmarshal(out, &got); err != nil {
					t.Fatalf("output is not JSON: %v", err)
				}
				if got.LaTeX != `\pi r^{2}` || !strings.HasPrefix(got.Explanation, "Area") {
					t.Errorf("decoded = %+v", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			host := newFakeRenderHost()
			conv := newTestConverter(t, host, &fakeCompleter{reply: areaReply})

			res, err := conv.Convert(testContext(t), "area of a circle", tt.format)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if res.Format != tt.format || res.Fallback {
				t.Errorf("result = %+v", res)
			}
			tt.check(t, res.Output)

			if host.Opens() != 0 {
				t.Errorf("host opened %d times, want 0", host.Opens())
			}
			if calls := host.fakeEngineHost.Calls(); len(calls) != 0 {
				t.Errorf("engine injected %v for a text format", calls)
			}
		})
	}
}

// ----- TestConverter_Convert - Page formats -----

func TestConverter_ConvertPage(t *testing.T) {
	t.Parallel()

	host := newFakeRenderHost()
	comp := &fakeCompleter{reply: areaReply}
	conv := newTestConverter(t, host, comp)
	ctx := testContext(t)

	for _, f := range []Format{FormatHTML, FormatPNG} {
		res, err := conv.Convert(ctx, "area of a circle", f)
		if err != nil {
			t.Fatalf("Convert(%s) error = %v", f, err)
		}
		if want := string(f) + `|katex:\pi r^{2}`; string(res.Output) != want {
			t.Errorf("Output = %q, want %q", res.Output, want)
		}
		if res.Fallback || res.RenderErr != nil {
			t.Errorf("unexpected fallback: %+v", res)
		}
	}

	if n := len(host.fakeEngineHost.Calls()); n != 3 {
		t.Errorf("engine injections = %d, want 3 across two conversions", n)
	}
	if conv.Readiness() != Ready {
		t.Errorf("Readiness() = %v, want ready", conv.Readiness())
	}
	if host.HTML(MountSource) == "" && host.Content(MountSource) == "" {
		t.Error("source mount was not written")
	}
	if got := host.Content(MountExplanation); !strings.Contains(got, "Area of a circle") {
		t.Errorf("explanation mount = %q", got)
	}
	if comp.Calls() != 2 {
		t.Errorf("model calls = %d, want 2", comp.Calls())
	}
}

func TestConverter_ConvertFallback(t *testing.T) {
	t.Parallel()

	host := newFakeRenderHost()
	conv := newTestConverter(t, host, &fakeCompleter{
		reply: `{"latex": "\\frac{1", "explanation": "broken"}`,
	})

	res, err := conv.Convert(testContext(t), "one over", FormatHTML)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !res.Fallback {
		t.Fatal("Fallback = false, want true")
	}
	if !errors.Is(res.RenderErr, ErrRender) {
		t.Errorf("RenderErr = %v, want ErrRender", res.RenderErr)
	}
	if k := KindOf(res.RenderErr); k != KindRender {
		t.Errorf("KindOf(RenderErr) = %v, want render", k)
	}
	if got := host.Content(MountMath); got != FallbackText {
		t.Errorf("math mount = %q, want %q", got, FallbackText)
	}
	if res.Result.LaTeX != `\frac{1` {
		t.Errorf("LaTeX = %q, want the model reply unchanged", res.Result.LaTeX)
	}
}

func TestConverter_ConvertErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		format  Format
		setup   func(h *fakeRenderHost, c *fakeCompleter)
		wantErr error
	}{
		{
			name:    "blank input",
			text:    "   ",
			format:  FormatHTML,
			wantErr: ErrEmptyInput,
		},
		{
			name:    "unknown format",
			text:    "x",
			format:  Format("docx"),
			wantErr: ErrInvalidFormat,
		},
		{
			name:   "model unreachable",
			text:   "x",
			format: FormatTeX,
			setup: func(_ *fakeRenderHost, c *fakeCompleter) {
				c.err = errors.New("connection refused")
			},
			wantErr: ErrTransport,
		},
		{
			name:   "model reply not JSON",
			text:   "x",
			format: FormatHTML,
			setup: func(_ *fakeRenderHost, c *fakeCompleter) {
				c.reply = "I cannot help with that."
			},
			wantErr: ErrParse,
		},
		{
			name:   "engine fails to load",
			text:   "x",
			format: FormatPDF,
			setup: func(h *fakeRenderHost, _ *fakeCompleter) {
				h.fail = map[string]error{"katex.js": errors.New("404")}
			},
			wantErr: ErrRendererUnavailable,
		},
		{
			name:   "page fails to open",
			text:   "x",
			format: FormatPNG,
			setup: func(h *fakeRenderHost, _ *fakeCompleter) {
				h.openErr = ErrBrowserConnect
			},
			wantErr: ErrBrowserConnect,
		},
		{
			name:   "export fails",
			text:   "x",
			format: FormatPDF,
			setup: func(h *fakeRenderHost, _ *fakeCompleter) {
				h.exportErr = ErrExport
			},
			wantErr: ErrExport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			host := newFakeRenderHost()
			comp := &fakeCompleter{reply: areaReply}
			if tt.setup != nil {
				tt.setup(host, comp)
			}
			conv := newTestConverter(t, host, comp)

			res, err := conv.Convert(testContext(t), tt.text, tt.format)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Convert() error = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Errorf("result = %+v, want nil on error", res)
			}
		})
	}
}

func TestConverter_Render(t *testing.T) {
	t.Parallel()

	host := newFakeRenderHost()
	comp := &fakeCompleter{reply: areaReply}
	conv := newTestConverter(t, host, comp)
	ctx := testContext(t)

	if _, err := conv.Render(ctx, Result{}, FormatHTML); !errors.Is(err, ErrEmptyLaTeX) {
		t.Errorf("Render(empty) error = %v, want ErrEmptyLaTeX", err)
	}

	res, err := conv.Render(ctx, Result{LaTeX: `e^{i\pi}`}, FormatPDF)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := `pdf|katex:e^{i\pi}`; string(res.Output) != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
	if comp.Calls() != 0 {
		t.Errorf("Render called the model %d times", comp.Calls())
	}
}

func TestConverter_Close(t *testing.T) {
	t.Parallel()

	host := newFakeRenderHost()
	conv := newTestConverter(t, host, &fakeCompleter{reply: areaReply})

	if err := conv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := conv.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if host.closes != 1 {
		t.Errorf("host closed %d times, want 1", host.closes)
	}

	ctx := testContext(t)
	if _, err := conv.Convert(ctx, "x", FormatHTML); !errors.Is(err, ErrClosed) {
		t.Errorf("Convert(html) after Close error = %v, want ErrClosed", err)
	}
	// Text formats never touch the page.
	if _, err := conv.Convert(ctx, "x", FormatTeX); err != nil {
		t.Errorf("Convert(tex) after Close error = %v", err)
	}
}

func TestConverter_CloseStopsEngineLoad(t *testing.T) {
	t.Parallel()

	host := newFakeRenderHost()
	host.gate = make(chan struct{})
	conv := newTestConverter(t, host, &fakeCompleter{reply: areaReply})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := conv.Convert(ctx, "area of a circle", FormatPNG); !errors.Is(err, ErrRendererUnavailable) {
		t.Fatalf("Convert() error = %v, want ErrRendererUnavailable", err)
	}

	if err := conv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	before := host.fakeEngineHost.Calls()
	close(host.gate)
	time.Sleep(50 * time.Millisecond)

	if after := host.fakeEngineHost.Calls(); len(after) != len(before) {
		t.Errorf("host calls after Close = %v, before = %v", after, before)
	}
	if conv.Readiness() == Ready {
		t.Error("Readiness() = ready after Close")
	}
}

func TestConverter_Controller(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, newFakeRenderHost(), &fakeCompleter{reply: areaReply})
	ctl := conv.Controller()
	defer ctl.Close()

	if _, ok := ctl.Trigger("area of a circle"); !ok {
		t.Fatal("Trigger() ok = false")
	}
	st := waitSettled(t, ctl)
	if st.Phase != PhaseSucceeded || st.Result.LaTeX != `\pi r^{2}` {
		t.Errorf("state = %+v", st)
	}
}

func TestNewConverter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{
			name: "invalid page size",
			opts: []Option{
				WithCompleter(&fakeCompleter{}),
				WithPageSettings(&PageSettings{Size: "tabloid", Orientation: "portrait", Margin: 0.5}),
			},
			wantErr: ErrInvalidPageSize,
		},
		{
			name:    "missing api key",
			opts:    []Option{WithLLM(LLMConfig{Provider: "anthropic"})},
			wantErr: ErrMissingAPIKey,
		},
		{
			name:    "unknown provider",
			opts:    []Option{WithLLM(LLMConfig{Provider: "oracle", APIKey: "k"})},
			wantErr: ErrUnknownProvider,
		},
		{
			name: "missing asset directory",
			opts: []Option{
				WithCompleter(&fakeCompleter{}),
				WithAssetPath("/nonexistent/mathtex-assets"),
			},
			wantErr: ErrInvalidAssetPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv, err := NewConverter(tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewConverter() error = %v, want %v", err, tt.wantErr)
			}
			if conv != nil {
				t.Error("converter returned alongside error")
			}
		})
	}
}
