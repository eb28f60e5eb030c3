//go:build integration

package mathtex

// Notes:
// - Runs against a real Chrome launched by rod and the KaTeX CDN
// - One converter is shared; its page mutex serializes the subtests

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

const integrationTimeout = 60 * time.Second

func newIntegrationConverter(t *testing.T, reply string) *Converter {
	t.Helper()
	conv, err := NewConverter(
		WithCompleter(&fakeCompleter{reply: reply}),
		WithNoSandbox(os.Getenv("CI") == "true"),
	)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { _ = conv.Close() })
	return conv
}

func TestRodHost_Formats(t *testing.T) {
	conv := newIntegrationConverter(t, areaReply)

	tests := []struct {
		format Format
		check  func(t *testing.T, out []byte)
	}{
		{
			format: FormatHTML,
			check: func(t *testing.T, out []byte) {
				if !strings.Contains(string(out), `class="katex`) {
					t.Error("HTML output has no KaTeX markup")
				}
			},
		},
		{
			format: FormatPNG,
			check: func(t *testing.T, out []byte) {
				if !bytes.HasPrefix(out, []byte("\x89PNG")) {
					t.Error("output is not a PNG")
				}
			},
		},
		{
			format: FormatPDF,
			check: func(t *testing.T, out []byte) {
				if !bytes.HasPrefix(out, []byte("%PDF")) {
					t.Error("output is not a PDF")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
			defer cancel()

			res, err := conv.Convert(ctx, "area of a circle", tt.format)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if res.Fallback {
				t.Fatalf("unexpected fallback: %v", res.RenderErr)
			}
			tt.check(t, res.Output)
		})
	}

	if conv.Readiness() != Ready {
		t.Errorf("Readiness() = %v, want ready", conv.Readiness())
	}
}

func TestRodHost_MalformedLaTeXFallsBack(t *testing.T) {
	conv := newIntegrationConverter(t, `{"latex": "\\frac{1", "explanation": "broken"}`)

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	res, err := conv.Convert(ctx, "one over", FormatHTML)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !res.Fallback {
		t.Fatal("Fallback = false, want true")
	}
	if !strings.Contains(string(res.Output), FallbackText) {
		t.Errorf("output does not contain %q", FallbackText)
	}
}
