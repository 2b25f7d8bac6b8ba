package ingest

import (
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/mailtemp/tempmail/internal/models"
	"github.com/mailtemp/tempmail/internal/parser"
)

const defaultSubject = "(No Subject)"

// stored in the headers column, everything else is dropped
var keptHeaders = []string{
	"Message-Id",
	"Date",
	"From",
	"To",
	"Cc",
	"Reply-To",
	"Subject",
	"Content-Type",
	"Return-Path",
}

type envelope struct {
	subject string
	from    string
	headers models.JSONMap
}

// readEnvelope extracts the decoded Subject and From headers. When enmime
// cannot read the message the raw header block is used instead.
func readEnvelope(raw string) envelope {
	env, err := enmime.ReadEnvelope(strings.NewReader(raw))
	if err != nil || env == nil {
		return readRawEnvelope(raw)
	}

	headers := models.JSONMap{}
	for _, key := range keptHeaders {
		values := env.GetHeaderValues(key)
		if len(values) > 0 {
			headers[strings.ToLower(key)] = values
		}
	}

	return envelope{
		subject: subjectOrDefault(env.GetHeader("Subject")),
		from:    strings.TrimSpace(env.GetHeader("From")),
		headers: headers,
	}
}

func readRawEnvelope(raw string) envelope {
	block, _, ok := parser.SplitMessage(raw)
	if !ok {
		return envelope{subject: defaultSubject, headers: models.JSONMap{}}
	}
	parsed := parser.ParseHeaders(block)

	headers := models.JSONMap{}
	for _, key := range keptHeaders {
		if value := parsed.Get(key); value != "" {
			headers[strings.ToLower(key)] = []string{value}
		}
	}

	return envelope{
		subject: subjectOrDefault(parsed.Get("Subject")),
		from:    parsed.Get("From"),
		headers: headers,
	}
}

func subjectOrDefault(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return defaultSubject
	}
	return subject
}
