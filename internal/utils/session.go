package utils

import "strings"

// gin context key holding the session secret, next to GinKeyAddress
const GinKeySecret = "SessionSecret"

const sessionSeparator = "|"

// SessionValue joins address and secret into the session cookie value.
// Escaping is left to the cookie writer.
func SessionValue(address, secret string) string {
	return address + sessionSeparator + secret
}

// ParseSessionValue splits a session cookie value. ok is false unless both
// parts are present.
func ParseSessionValue(value string) (address, secret string, ok bool) {
	address, secret, found := strings.Cut(value, sessionSeparator)
	address = strings.ToLower(strings.TrimSpace(address))
	secret = strings.TrimSpace(secret)
	if !found || address == "" || secret == "" {
		return "", "", false
	}
	return address, secret, true
}
