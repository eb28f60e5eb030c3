package mathtex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-mathtex/internal/reply"
)

// Completer sends one system/user exchange to a language model and returns
// the text of the reply. Implementations must not retry.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Compile-time interface checks.
var (
	_ Completer = (*anthropicCompleter)(nil)
	_ Completer = (*openAICompleter)(nil)
	_ Requester = (*Client)(nil)
)

// Requester turns a description into a Result. Client is the production
// implementation; Controller depends only on this.
type Requester interface {
	Request(ctx context.Context, text string) (Result, error)
}

// Client builds the model request and extracts the Result from the reply.
type Client struct {
	completer Completer
	logger    *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the logger used for request diagnostics.
func WithClientLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client on top of a Completer.
// Panics if completer is nil (programmer error).
func NewClient(completer Completer, opts ...ClientOption) *Client {
	if completer == nil {
		panic("mathtex: NewClient requires a Completer")
	}
	c := &Client{
		completer: completer,
		logger:    discardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request sends text to the model and returns the parsed Result.
//
// Errors wrap ErrEmptyInput when text is blank, ErrTransport when the model
// could not be reached, and ErrParse (plus the failing reply stage's
// sentinel) when the reply is not the expected JSON object.
func (c *Client) Request(ctx context.Context, text string) (Result, error) {
	req, err := NewRequest(text)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	raw, err := c.completer.Complete(ctx, SystemPrompt, req.Text())
	if err != nil {
		c.logger.Debug("model request failed", "err", err, "elapsed", time.Since(start).Round(time.Millisecond))
		return Result{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	c.logger.Debug("model replied", "bytes", len(raw), "elapsed", time.Since(start).Round(time.Millisecond))

	payload, err := reply.Parse(raw)
	if err != nil {
		c.logger.Debug("unusable reply", "err", err, "reply", raw)
		return Result{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	return Result{
		LaTeX:       payload.LaTeX,
		Explanation: payload.Explanation,
	}, nil
}

// discardLogger returns a logger that writes nowhere.
func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}
