// Package reply recovers the structured conversion payload from a model reply.
//
// Extraction runs in three stages, each usable on its own:
//
//  1. StripFences removes Markdown code fences the model may wrap JSON in.
//     It never fails.
//  2. Decode parses the remaining text strictly as a single JSON object
//     and fails with ErrInvalidJSON otherwise.
//  3. Validate checks the object schema: "latex" and "explanation" must be
//     present and strings, and the LaTeX must be non-empty once surrounding
//     math-mode delimiters are removed.
//
// Parse chains the three stages.
package reply
