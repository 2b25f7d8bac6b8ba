package parser

import (
	"regexp"
	"strings"
)

var htmlProbe = regexp.MustCompile(`(?i)<html|<body|</div>`)

// LooksLikeHTML is a loose probe for markup in content declared as text.
func LooksLikeHTML(content string) bool {
	return htmlProbe.MatchString(content)
}

// Reclassify marks text bodies that look like HTML as HTML. Applying it to
// its own output changes nothing.
func Reclassify(body ParsedBody) (ParsedBody, bool) {
	if body.Kind == KindText && LooksLikeHTML(body.Content) {
		return ParsedBody{Kind: KindHTML, Content: body.Content}, true
	}
	return body, false
}

// NeedsRescue reports whether content still carries encoded "=" signs, the
// usual trace of quoted-printable that was never declared as such.
func NeedsRescue(content string) bool {
	return strings.Contains(content, "=3D") || strings.Contains(content, "=3d")
}

// RescueQuotedPrintable decodes the body once more as quoted-printable when
// NeedsRescue matches. It is a best-effort heuristic and is not repeated on
// its own output.
func RescueQuotedPrintable(body ParsedBody) (ParsedBody, bool) {
	if !NeedsRescue(body.Content) {
		return body, false
	}
	return ParsedBody{Kind: body.Kind, Content: DecodeQuotedPrintable(body.Content)}, true
}
