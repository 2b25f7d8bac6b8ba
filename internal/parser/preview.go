package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const PreviewLength = 120

// Preview returns the first PreviewLength characters of the visible text of
// a rendered body, whitespace collapsed. Script and style content is skipped.
func Preview(body ParsedBody) string {
	text := body.Content
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body.Content))
	if err == nil {
		doc.Find("script, style, head").Each(func(i int, el *goquery.Selection) {
			el.Remove()
		})
		text = doc.Text()
	}

	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength]) + "..."
}
