// Package pipeline turns a LaTeX source string into the highlighted HTML
// block shown on the source card of the host page.
//
// The source is wrapped in a fenced Markdown code block tagged latex and
// rendered by goldmark; goldmark-highlighting colours it with chroma using
// inline styles, so the exported page needs no extra stylesheet.
package pipeline
