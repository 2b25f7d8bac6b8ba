package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReclassify(t *testing.T) {
	tests := []struct {
		name    string
		input   ParsedBody
		kind    Kind
		changed bool
	}{
		{name: "html tag", input: ParsedBody{Kind: KindText, Content: "<HTML><p>x</p></HTML>"}, kind: KindHTML, changed: true},
		{name: "body tag", input: ParsedBody{Kind: KindText, Content: "<body>x"}, kind: KindHTML, changed: true},
		{name: "closing div", input: ParsedBody{Kind: KindText, Content: "x</div>"}, kind: KindHTML, changed: true},
		{name: "plain text", input: ParsedBody{Kind: KindText, Content: "a <b>bold</b> claim"}, kind: KindText},
		{name: "already html", input: ParsedBody{Kind: KindHTML, Content: "<body>"}, kind: KindHTML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once, changed := Reclassify(tt.input)
			assert.Equal(t, tt.kind, once.Kind)
			assert.Equal(t, tt.input.Content, once.Content)
			assert.Equal(t, tt.changed, changed)

			twice, changedAgain := Reclassify(once)
			assert.Equal(t, once, twice)
			assert.False(t, changedAgain)
		})
	}
}

func TestRescueQuotedPrintable(t *testing.T) {
	body, rescued := RescueQuotedPrintable(ParsedBody{Kind: KindHTML, Content: `<td width=3D"100%">`})
	assert.True(t, rescued)
	assert.Equal(t, ParsedBody{Kind: KindHTML, Content: `<td width="100%">`}, body)

	body, rescued = RescueQuotedPrintable(ParsedBody{Kind: KindText, Content: "x=3dy"})
	assert.True(t, rescued)
	assert.Equal(t, "x=y", body.Content)

	untouched := ParsedBody{Kind: KindText, Content: "a=b"}
	body, rescued = RescueQuotedPrintable(untouched)
	assert.False(t, rescued)
	assert.Equal(t, untouched, body)
}
