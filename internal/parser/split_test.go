package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessage(t *testing.T) {
	headers, body, ok := SplitMessage("Subject: hi\r\nFrom: a@b.c\r\n\r\n  Body line\r\n\r\n")
	require.True(t, ok)
	assert.Equal(t, "Subject: hi\r\nFrom: a@b.c", headers)
	assert.Equal(t, "Body line", body)
}

func TestSplitMessage_BareLF(t *testing.T) {
	headers, body, ok := SplitMessage("Subject: hi\n\nBody")
	require.True(t, ok)
	assert.Equal(t, "Subject: hi", headers)
	assert.Equal(t, "Body", body)
}

func TestSplitMessage_CRLFTakesPrecedence(t *testing.T) {
	headers, body, ok := SplitMessage("A: b\n\nX\r\n\r\nY")
	require.True(t, ok)
	assert.Equal(t, "A: b\n\nX", headers)
	assert.Equal(t, "Y", body)
}

func TestSplitMessage_NoDelimiter(t *testing.T) {
	raw := "no blank line here\r\njust text"
	headers, body, ok := SplitMessage(raw)
	assert.False(t, ok)
	assert.Empty(t, headers)
	assert.Equal(t, raw, body)
}

func TestParseHeaders(t *testing.T) {
	block := "Content-Type: multipart/alternative;\r\n\tboundary=\"abc\"\r\n" +
		"SUBJECT: First\r\n" +
		"Subject: Second\r\n" +
		" folded into the ignored duplicate\r\n" +
		"garbage line\r\n" +
		"Content-Transfer-Encoding: Base64\r\n"

	headers := ParseHeaders(block)

	assert.Equal(t, "multipart/alternative; boundary=\"abc\"", headers.Get("content-type"))
	assert.Equal(t, "multipart/alternative", headers.ContentType())
	assert.Equal(t, "First", headers.Get("Subject"))
	assert.Equal(t, "Base64", headers.TransferEncoding())

	boundary, ok := headers.Boundary()
	require.True(t, ok)
	assert.Equal(t, "abc", boundary)
}

func TestHeaderBlock_Defaults(t *testing.T) {
	headers := ParseHeaders("")
	assert.Equal(t, "text/plain", headers.ContentType())
	assert.Empty(t, headers.TransferEncoding())

	_, ok := headers.Boundary()
	assert.False(t, ok)
}

func TestHeaderBlock_ContentTypeKeepsCase(t *testing.T) {
	headers := ParseHeaders("content-TYPE: Text/HTML; charset=utf-8")
	assert.Equal(t, "Text/HTML", headers.ContentType())
}

func TestHeaderBlock_Boundary(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{name: "quoted", value: `multipart/mixed; boundary="----=_Part_1"`, expected: "----=_Part_1"},
		{name: "unquoted with trailing param", value: `multipart/mixed; boundary=abc; charset=x`, expected: "abc"},
		{name: "upper-case name", value: `multipart/mixed; BOUNDARY="xyz"`, expected: "xyz"},
		{name: "metacharacters", value: `multipart/mixed; boundary="=_Part_12+34()"`, expected: "=_Part_12+34()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boundary, ok := HeaderBlock{"content-type": tt.value}.Boundary()
			require.True(t, ok)
			assert.Equal(t, tt.expected, boundary)
		})
	}
}

func TestSplitOnBoundary(t *testing.T) {
	body := "pre\n--=_Part_12+34()\nA\n--=_Part_12+34()\nB\n--=_Part_12+34()--\nepi"

	segments := splitOnBoundary(body, "=_Part_12+34()")

	assert.Equal(t, []string{"pre\n", "\nA\n", "\nB\n", "\nepi"}, segments)
}

func TestSplitOnBoundary_NoOccurrence(t *testing.T) {
	assert.Equal(t, []string{"whole body"}, splitOnBoundary("whole body", "missing"))
}
