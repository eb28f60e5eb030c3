package reply

import "strings"

const fence = "```"

// StripFences returns the content of the fenced block in text, or the
// trimmed text when it contains no fence. The block runs from the first
// opening marker to the last closing marker, so backticks inside JSON
// strings survive. The info string after the opening marker ("json",
// "JSON", ...) is dropped. An unterminated fence yields everything after
// the opening marker.
func StripFences(text string) string {
	start := strings.Index(text, fence)
	if start < 0 {
		return strings.TrimSpace(text)
	}

	body := text[start+len(fence):]
	body = body[infoStringLen(body):]

	if end := strings.LastIndex(body, fence); end >= 0 {
		body = body[:end]
	}

	// A doubled closing fence leaves one marker at the end of the block.
	body = strings.TrimSpace(body)
	for strings.HasSuffix(body, fence) {
		body = strings.TrimSpace(strings.TrimSuffix(body, fence))
	}
	return body
}

// infoStringLen returns the length of the info string that follows an opening
// fence: a run of letters, digits, '-' or '_'.
func infoStringLen(s string) int {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			continue
		default:
			return i
		}
	}
	return len(s)
}
