package parser

import (
	"fmt"
	"html"
)

const (
	DefaultMaxDepth = 50
	DefaultMaxParts = 10000
)

// Degradations recorded in a Report.
const (
	NoteMissingDelimiter        = "missing-delimiter"
	NoteMissingBoundary         = "missing-boundary"
	NoteDepthLimit              = "depth-limit"
	NotePartLimit               = "part-limit"
	NoteBase64Fallback          = "base64-fallback"
	NoteQuotedPrintableFallback = "qp-fallback"
	NoteRescueDecoded           = "rescue-decoded"
	NoteSniffedHTML             = "sniffed-html"
	NoteRawFallback             = "raw-fallback"
	NoteRecoveredPanic          = "recovered-panic"
)

type Kind string

const (
	KindText Kind = "text"
	KindHTML Kind = "html"
)

func (k Kind) String() string {
	return string(k)
}

// ParsedBody is the renderable result of a parse.
type ParsedBody struct {
	Kind    Kind   `json:"type"`
	Content string `json:"content"`
}

// Report lists what degraded while parsing one message. It never affects the
// ParsedBody.
type Report struct {
	Notes      []string `json:"notes"`
	Leaves     int      `json:"leaves"`
	Multiparts int      `json:"multiparts"`
}

func (r *Report) note(n string) {
	for _, existing := range r.Notes {
		if existing == n {
			return
		}
	}
	r.Notes = append(r.Notes, n)
}

// Has reports whether the note was recorded.
func (r *Report) Has(n string) bool {
	for _, existing := range r.Notes {
		if existing == n {
			return true
		}
	}
	return false
}

// Parser turns raw messages into ParsedBody values. It holds no per-message
// state and is safe for concurrent use.
type Parser struct {
	maxDepth int
	maxParts int
}

type Option func(*Parser)

func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

func WithMaxParts(parts int) Option {
	return func(p *Parser) {
		if parts > 0 {
			p.maxParts = parts
		}
	}
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		maxDepth: DefaultMaxDepth,
		maxParts: DefaultMaxParts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// ParseBody extracts the displayable body of a raw message with the default
// limits. See Parser.Parse.
func ParseBody(raw string) ParsedBody {
	body, _ := defaultParser.Parse(raw)
	return body
}

// Process parses and renders a raw message with the default limits.
func Process(raw string) ParsedBody {
	body, _ := defaultParser.Process(raw)
	return body
}

// Parse walks the MIME structure of raw, selects the body, applies the
// quoted-printable rescue and the HTML sniffing. The content is decoded but
// not yet sanitized. Parse never panics: any fault falls back to the raw
// message as text.
func (p *Parser) Parse(raw string) (body ParsedBody, report *Report) {
	report = &Report{}
	defer func() {
		if r := recover(); r != nil {
			report.note(NoteRecoveredPanic)
			report.note(NoteRawFallback)
			report.Notes = append(report.Notes, fmt.Sprintf("panic: %v", r))
			body = ParsedBody{Kind: KindText, Content: raw}
		}
	}()

	body = p.extract(raw, report)

	var rescued, sniffed bool
	if body, rescued = RescueQuotedPrintable(body); rescued {
		report.note(NoteRescueDecoded)
	}
	if body, sniffed = Reclassify(body); sniffed {
		report.note(NoteSniffedHTML)
	}
	return body, report
}

// Process runs Parse followed by Render.
func (p *Parser) Process(raw string) (rendered ParsedBody, report *Report) {
	var body ParsedBody
	body, report = p.Parse(raw)
	defer func() {
		if r := recover(); r != nil {
			report.note(NoteRecoveredPanic)
			rendered = ParsedBody{Kind: KindText, Content: html.EscapeString(raw)}
		}
	}()
	return Render(body), report
}

func (p *Parser) extract(raw string, report *Report) ParsedBody {
	headers, body, ok := SplitMessage(raw)
	if !ok {
		report.note(NoteMissingDelimiter)
		return ParsedBody{Kind: KindText, Content: raw}
	}

	acc := &accumulator{}
	w := &walker{
		maxDepth: p.maxDepth,
		maxParts: p.maxParts,
		acc:      acc,
		report:   report,
	}
	w.walk(bodyPart{headers: ParseHeaders(headers), body: body})

	return classify(acc, raw, report)
}

func classify(acc *accumulator, raw string, report *Report) ParsedBody {
	switch {
	case acc.html.Len() > 0:
		return ParsedBody{Kind: KindHTML, Content: acc.html.String()}
	case acc.text.Len() > 0:
		return ParsedBody{Kind: KindText, Content: acc.text.String()}
	default:
		report.note(NoteRawFallback)
		return ParsedBody{Kind: KindText, Content: raw}
	}
}

// Render applies the terminal transform for the body kind: SanitizeHTML for
// HTML and Linkify for text.
func Render(body ParsedBody) ParsedBody {
	if body.Kind == KindHTML {
		return ParsedBody{Kind: KindHTML, Content: SanitizeHTML(body.Content)}
	}
	return ParsedBody{Kind: KindText, Content: Linkify(body.Content)}
}
