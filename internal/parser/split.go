package parser

import (
	"regexp"
	"strings"
)

const (
	defaultContentType = "text/plain"

	headerContentType             = "content-type"
	headerContentTransferEncoding = "content-transfer-encoding"
)

// tolerant of optional quotes around the value
var boundaryParam = regexp.MustCompile(`(?i)boundary="?([^";\r\n]+)"?`)

// HeaderBlock maps lower-cased header names to their raw, unfolded values.
// The first occurrence of a header wins.
type HeaderBlock map[string]string

// ParseHeaders reads a header block. Continuation lines are joined onto the
// preceding header; lines without a colon are ignored.
func ParseHeaders(block string) HeaderBlock {
	headers := HeaderBlock{}
	current := ""
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if current != "" {
				headers[current] = headers[current] + " " + strings.TrimSpace(line)
			}
			continue
		}

		name, value, found := strings.Cut(line, ":")
		if !found {
			current = ""
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if _, exists := headers[name]; exists {
			// only the first occurrence is kept, later folds must not leak into it
			current = ""
			continue
		}
		headers[name] = strings.TrimSpace(value)
		current = name
	}
	return headers
}

// Get returns the value of the named header, case-insensitively.
func (h HeaderBlock) Get(name string) string {
	return h[strings.ToLower(name)]
}

// ContentType returns the media type without parameters, defaulting to
// text/plain.
func (h HeaderBlock) ContentType() string {
	value, _, _ := strings.Cut(h.Get(headerContentType), ";")
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultContentType
	}
	return value
}

// TransferEncoding returns the declared Content-Transfer-Encoding or "".
func (h HeaderBlock) TransferEncoding() string {
	value, _, _ := strings.Cut(h.Get(headerContentTransferEncoding), ";")
	return strings.TrimSpace(value)
}

// Boundary returns the multipart boundary parameter of Content-Type.
func (h HeaderBlock) Boundary() (string, bool) {
	match := boundaryParam.FindStringSubmatch(h.Get(headerContentType))
	if match == nil {
		return "", false
	}
	return match[1], true
}

// SplitMessage splits a message (or a part) at the first blank line, CRLF
// delimiters taking precedence over bare LF. The body is trimmed. ok is false
// when no delimiter exists.
func SplitMessage(raw string) (headers, body string, ok bool) {
	idx := strings.Index(raw, "\r\n\r\n")
	if idx == -1 {
		idx = strings.Index(raw, "\n\n")
	}
	if idx == -1 {
		return "", raw, false
	}
	return raw[:idx], strings.TrimSpace(raw[idx:]), true
}

// splitOnBoundary cuts a multipart body on every literal "--boundary",
// swallowing a directly following "--" closing marker. The preamble and the
// epilogue are returned as segments too.
func splitOnBoundary(body, boundary string) []string {
	delimiter := "--" + boundary
	var segments []string
	rest := body
	for {
		idx := strings.Index(rest, delimiter)
		if idx == -1 {
			segments = append(segments, rest)
			return segments
		}
		segments = append(segments, rest[:idx])
		rest = strings.TrimPrefix(rest[idx+len(delimiter):], "--")
	}
}
