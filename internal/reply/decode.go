package reply

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// maxPreview caps how much of a bad payload is quoted in error messages.
const maxPreview = 80

// Decode parses payload as exactly one JSON object.
// Arrays, scalars, trailing garbage and empty input fail with ErrInvalidJSON.
func Decode(payload string) (gjson.Result, error) {
	if payload == "" {
		return gjson.Result{}, fmt.Errorf("%w: empty payload", ErrInvalidJSON)
	}
	if !gjson.Valid(payload) {
		return gjson.Result{}, fmt.Errorf("%w: %q", ErrInvalidJSON, preview(payload))
	}

	obj := gjson.Parse(payload)
	if !obj.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: got %s", ErrInvalidJSON, obj.Type)
	}
	return obj, nil
}

func preview(s string) string {
	if len(s) <= maxPreview {
		return s
	}
	return s[:maxPreview] + "..."
}
