package parser

import (
	"regexp"
	"strings"
)

// greedy on purpose: punctuation right after a URL ends up in the link
var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

var (
	textEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")
	hrefEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// Linkify wraps every http or https URL of a plain text body in an anchor
// opening in a new window, using the URL as both target and label. Angle
// brackets outside links are escaped so the text cannot open markup.
func Linkify(text string) string {
	matches := urlPattern.FindAllStringIndex(text, -1)
	if matches == nil {
		return textEscaper.Replace(text)
	}

	var b strings.Builder
	b.Grow(len(text) + len(matches)*96)
	last := 0
	for _, m := range matches {
		b.WriteString(textEscaper.Replace(text[last:m[0]]))
		url := text[m[0]:m[1]]
		b.WriteString(`<a href="` + hrefEscaper.Replace(url) + `" ` + linkTarget + ` ` + linkRel + ` ` + textLinkStyle + `>`)
		b.WriteString(textEscaper.Replace(url))
		b.WriteString(`</a>`)
		last = m[1]
	}
	b.WriteString(textEscaper.Replace(text[last:]))
	return b.String()
}
