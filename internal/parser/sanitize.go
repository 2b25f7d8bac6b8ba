package parser

import (
	"bytes"
	"html"
	"io"
	"regexp"
	"strings"

	nethtml "golang.org/x/net/html"
)

const (
	linkTarget    = `target="_blank"`
	linkRel       = `rel="noopener noreferrer"`
	htmlLinkStyle = `style="color:#3b82f6; text-decoration:underline;"`
	textLinkStyle = `style="color:#3b82f6;"`
)

// an href with a quoted value, preceded by whitespace
var quotedHref = regexp.MustCompile(`(?i)\shref=["']`)

// Elements the tokenizer reads as raw text. A browser showing the sandboxed
// frame parses their content as markup, so it gets the same treatment.
var (
	markupRawText = map[string]bool{"iframe": true, "noembed": true, "noframes": true, "noscript": true}
	textRawText   = map[string]bool{"plaintext": true, "textarea": true, "title": true, "xmp": true}
)

// SanitizeHTML removes every script element and rewrites each anchor that has
// a quoted href into a fresh tag opening in a new window with no referrer.
// All other markup is copied byte for byte; in particular event handler
// attributes, style and object content are left alone, so the result must
// still be displayed in a sandboxed frame. Content of raw-text elements other
// than style is sanitized the same way. A script end tag outside a script
// element is kept as text.
func SanitizeHTML(input string) string {
	z := nethtml.NewTokenizer(strings.NewReader(input))
	var b strings.Builder
	b.Grow(len(input))

	inScript := false
	rawContainer := ""
	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			// an unterminated tag at the end of input is kept as text
			if z.Err() == io.EOF && !inScript {
				b.Write(z.Raw())
			}
			return b.String()
		}

		// TagName lower-cases the tokenizer buffer in place
		raw := bytes.Clone(z.Raw())

		switch tt {
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch {
			case string(name) == "script":
				inScript = true
				continue
			case inScript:
				continue
			case markupRawText[string(name)]:
				z.NextIsNotRawText()
			case tt == nethtml.StartTagToken && textRawText[string(name)]:
				rawContainer = string(name)
			case string(name) == "a" && hasAttr && quotedHref.Match(raw):
				if href, ok := hrefAttr(z); ok {
					b.WriteString(anchorTag(href, htmlLinkStyle))
					continue
				}
			}
		case nethtml.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "script" && inScript {
				inScript = false
				continue
			}
			if string(name) == rawContainer {
				rawContainer = ""
			}
		case nethtml.TextToken:
			if rawContainer != "" && !inScript {
				b.WriteString(SanitizeHTML(string(raw)))
				continue
			}
		}

		if !inScript {
			b.Write(raw)
		}
	}
}

func hrefAttr(z *nethtml.Tokenizer) (string, bool) {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "href" {
			return string(val), true
		}
		if !more {
			return "", false
		}
	}
}

func anchorTag(href, style string) string {
	return `<a href="` + html.EscapeString(href) + `" ` + linkTarget + ` ` + linkRel + ` ` + style + `>`
}
