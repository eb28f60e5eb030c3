package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

// ErrHighlight indicates the source block could not be rendered.
var ErrHighlight = errors.New("source highlighting failed")

// DefaultHighlightStyle is the chroma style used for the source card.
const DefaultHighlightStyle = "github"

// SourceHighlighter renders LaTeX source as a highlighted <pre> block.
type SourceHighlighter struct {
	md goldmark.Markdown
}

// NewSourceHighlighter creates a SourceHighlighter using the named chroma
// style. An empty style selects DefaultHighlightStyle.
func NewSourceHighlighter(style string) *SourceHighlighter {
	if style == "" {
		style = DefaultHighlightStyle
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(
					chromahtml.WithLineNumbers(false),
				),
			),
		),
	)
	return &SourceHighlighter{md: md}
}

// ToHTML returns the highlighted HTML fragment for latex.
// Goldmark has no context support, so conversion runs in a goroutine and
// ctx only bounds the wait.
func (h *SourceHighlighter) ToHTML(ctx context.Context, latex string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := h.md.Convert([]byte(FenceLaTeX(latex)), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHighlight, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// FenceLaTeX wraps latex in a fenced code block tagged latex. The fence is
// one backtick longer than the longest backtick run in latex, so the source
// cannot close it early.
func FenceLaTeX(latex string) string {
	fence := strings.Repeat("`", max(3, longestRun(latex, '`')+1))
	return fence + "latex\n" + strings.TrimRight(latex, "\n") + "\n" + fence + "\n"
}

func longestRun(s string, c byte) int {
	longest, cur := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			cur++
			longest = max(longest, cur)
			continue
		}
		cur = 0
	}
	return longest
}
