package parser

import (
	"strings"
)

// segments this short after trimming are noise between boundaries
const minHeaderlessSegment = 5

// accumulator collects decoded leaves for one parse call.
type accumulator struct {
	html strings.Builder
	text strings.Builder
}

type bodyPart struct {
	headers HeaderBlock
	body    string
	depth   int
}

type walker struct {
	maxDepth int
	maxParts int
	acc      *accumulator
	report   *Report
}

// walk visits the part tree depth-first with an explicit stack, keeping
// sibling order. Parts deeper than maxDepth are dropped, and the walk stops
// once maxParts parts have been visited.
func (w *walker) walk(root bodyPart) {
	stack := []bodyPart{root}
	visited := 0
	for len(stack) > 0 {
		part := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if part.depth > w.maxDepth {
			w.report.note(NoteDepthLimit)
			continue
		}
		if visited >= w.maxParts {
			w.report.note(NotePartLimit)
			return
		}
		visited++

		children := w.visit(part)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

func (w *walker) visit(part bodyPart) []bodyPart {
	contentType := strings.ToLower(part.headers.ContentType())
	if strings.Contains(contentType, "multipart") {
		return w.expand(part)
	}
	w.leaf(contentType, part)
	return nil
}

// expand returns the children of a multipart part. It never writes to the
// accumulator itself.
func (w *walker) expand(part bodyPart) []bodyPart {
	w.report.Multiparts++

	boundary, ok := part.headers.Boundary()
	if !ok {
		w.report.note(NoteMissingBoundary)
		return nil
	}

	var children []bodyPart
	for _, segment := range splitOnBoundary(part.body, boundary) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		headers, body, found := SplitMessage(segment)
		switch {
		case found:
			children = append(children, bodyPart{
				headers: ParseHeaders(headers),
				body:    body,
				depth:   part.depth + 1,
			})
		case len(segment) > minHeaderlessSegment:
			children = append(children, bodyPart{
				headers: HeaderBlock{},
				body:    segment,
				depth:   part.depth + 1,
			})
		}
	}
	return children
}

func (w *walker) leaf(contentType string, part bodyPart) {
	w.report.Leaves++

	content := part.body
	encoding := strings.ToLower(part.headers.TransferEncoding())
	switch {
	case strings.Contains(encoding, "base64"):
		decoded, ok := decodeBase64(content)
		if !ok {
			w.report.note(NoteBase64Fallback)
		}
		content = decoded
	case strings.Contains(encoding, "quoted-printable"):
		decoded, ok := decodeQuotedPrintable(content)
		if !ok {
			w.report.note(NoteQuotedPrintableFallback)
		}
		content = decoded
	}

	if strings.Contains(contentType, "html") {
		w.acc.html.WriteString(content)
	} else {
		w.acc.text.WriteString(content)
	}
}
