package parser

import (
	"encoding/base64"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// trailing horizontal whitespace followed by an escaped line break
var softLineBreak = regexp.MustCompile(`[\t ]*=\r?\n`)

// DecodeQuotedPrintable decodes quoted-printable text into a UTF-8 string.
// Soft line breaks are removed, "=HH" escapes become the encoded byte and any
// other "=" is kept as-is. When the decoded bytes are not valid UTF-8 the input
// is returned unchanged.
func DecodeQuotedPrintable(input string) string {
	out, _ := decodeQuotedPrintable(input)
	return out
}

// DecodeBase64 strips whitespace and decodes standard base64 into a UTF-8
// string. Any failure returns the input unchanged.
func DecodeBase64(input string) string {
	out, _ := decodeBase64(input)
	return out
}

func decodeQuotedPrintable(input string) (string, bool) {
	if input == "" {
		return "", true
	}

	str := softLineBreak.ReplaceAllString(input, "")
	decoded := make([]byte, 0, len(str))
	for i := 0; i < len(str); i++ {
		c := str[i]
		if c == '=' && i+2 < len(str) && isHex(str[i+1]) && isHex(str[i+2]) {
			decoded = append(decoded, unhex(str[i+1])<<4|unhex(str[i+2]))
			i += 2
			continue
		}
		decoded = append(decoded, c)
	}

	if !utf8.Valid(decoded) {
		return input, false
	}
	return string(decoded), true
}

func decodeBase64(input string) (string, bool) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)

	// padding is optional on the wire
	data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(compact, "="))
	if err != nil {
		return input, false
	}
	if !utf8.Valid(data) {
		return input, false
	}
	return string(data), true
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
