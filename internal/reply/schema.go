package reply

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Field names of the reply object.
const (
	FieldLaTeX       = "latex"
	FieldExplanation = "explanation"
)

// Payload is a validated reply.
type Payload struct {
	LaTeX       string
	Explanation string
}

// delimiterPairs lists math-mode delimiters in matching order; "$$" must be
// tried before "$".
var delimiterPairs = [][2]string{
	{"$$", "$$"},
	{`\[`, `\]`},
	{`\(`, `\)`},
	{"$", "$"},
}

// Validate checks obj against the reply schema and returns the payload with
// the LaTeX normalized to its delimiter-free form.
func Validate(obj gjson.Result) (Payload, error) {
	latex, err := stringField(obj, FieldLaTeX)
	if err != nil {
		return Payload{}, err
	}
	explanation, err := stringField(obj, FieldExplanation)
	if err != nil {
		return Payload{}, err
	}

	latex = StripDelimiters(latex)
	if latex == "" {
		return Payload{}, ErrEmptyLaTeX
	}

	return Payload{
		LaTeX:       latex,
		Explanation: strings.TrimSpace(explanation),
	}, nil
}

// Parse runs StripFences, Decode and Validate on a raw reply text.
// A reply that already decodes as a JSON object is not fence-stripped, so
// backticks inside its string values are kept.
func Parse(text string) (Payload, error) {
	if obj, err := Decode(strings.TrimSpace(text)); err == nil {
		return Validate(obj)
	}
	obj, err := Decode(StripFences(text))
	if err != nil {
		return Payload{}, err
	}
	return Validate(obj)
}

// StripDelimiters trims whitespace and removes surrounding math-mode
// delimiters, repeatedly, so "$$ \[x\] $$" becomes "x". Delimiters that do
// not wrap the whole expression are left alone.
func StripDelimiters(latex string) string {
	s := strings.TrimSpace(latex)
	for {
		stripped := false
		for _, pair := range delimiterPairs {
			open, closing := pair[0], pair[1]
			if len(s) < len(open)+len(closing) || !strings.HasPrefix(s, open) || !strings.HasSuffix(s, closing) {
				continue
			}
			inner := s[len(open) : len(s)-len(closing)]
			// "$a$ + $b$" is two inline formulas, not one wrapped expression.
			if strings.Contains(inner, closing) {
				continue
			}
			s = strings.TrimSpace(inner)
			stripped = true
			break
		}
		if !stripped {
			return s
		}
	}
}

func stringField(obj gjson.Result, name string) (string, error) {
	v := obj.Get(name)
	if !v.Exists() {
		return "", fmt.Errorf("%w: %q", ErrMissingField, name)
	}
	if v.Type != gjson.String {
		return "", fmt.Errorf("%w: %q is %s, want string", ErrFieldType, name, v.Type)
	}
	return v.String(), nil
}
