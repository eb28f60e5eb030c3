package reply

import "errors"

// Sentinel errors, one per failing stage.
var (
	// ErrInvalidJSON indicates the payload is not a single JSON object.
	ErrInvalidJSON = errors.New("reply is not a JSON object")

	// ErrMissingField indicates a required field is absent.
	ErrMissingField = errors.New("reply is missing a required field")

	// ErrFieldType indicates a required field is present but not a string.
	ErrFieldType = errors.New("reply field has the wrong type")

	// ErrEmptyLaTeX indicates the latex field holds no expression.
	ErrEmptyLaTeX = errors.New("reply latex field is empty")
)
