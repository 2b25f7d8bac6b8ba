package utils

import (
	"strings"
)

// NormalizeAddress strips a display name and angle brackets and lower-cases
// the result, e.g. `"Bob" <Bob@Example.com>` becomes bob@example.com.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)

	if strings.Contains(address, "<") && strings.Contains(address, ">") {
		startIdx := strings.LastIndex(address, "<") + 1
		endIdx := strings.LastIndex(address, ">")
		if startIdx > 0 && endIdx > startIdx {
			address = address[startIdx:endIdx]
		}
	}

	return strings.ToLower(strings.TrimSpace(address))
}

// ExtractDomainFromEmail returns the lower-cased domain of an address, or ""
// when the address has no single @.
func ExtractDomainFromEmail(email string) string {
	email = NormalizeAddress(email)
	if email == "" {
		return ""
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
