package utils

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateEmailID returns "<unix millis>-<6 random chars>". Ids sort by
// arrival time.
func GenerateEmailID(now time.Time) string {
	suffix, err := gonanoid.Generate(idAlphabet, 6)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}
