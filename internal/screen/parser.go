package screen

import (
	"regexp"
	"strings"
)

var pipeDelim = regexp.MustCompile(`\s*\|\s*`)

// Answer is the decomposed single-line classifier response.
type Answer struct {
	Company    string
	Impact     string
	Summary    string
	PriceRange string
	Rationale  string
}

// ParseAnswer splits a raw classifier line into its five fields. The prompt
// asks for a tab-separated line; some answers come back pipe-delimited, so a
// line without exactly four tabs falls back to pipe splitting. Any field
// count other than five discards the answer.
func ParseAnswer(raw string) (Answer, bool) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Answer{}, false
	}
	var parts []string
	if strings.Count(line, "\t") == 4 {
		parts = strings.Split(line, "\t")
	} else {
		parts = pipeDelim.Split(line, -1)
	}
	if len(parts) != 5 {
		return Answer{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return Answer{
		Company:    parts[0],
		Impact:     parts[1],
		Summary:    parts[2],
		PriceRange: parts[3],
		Rationale:  parts[4],
	}, true
}
