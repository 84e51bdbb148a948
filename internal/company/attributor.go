// Package company attaches a best-effort company name to article text. The
// result is a heuristic label, not a verified identity.
package company

import (
	"regexp"
	"strings"
)

const (
	capWord   = `[A-Z][A-Za-z0-9]*`
	capPhrase = `(` + capWord + `(?:[ \t]+` + capWord + `)*)`
	minLength = 3
	maxWords  = 3
)

var (
	// primaryPatterns are checked in order; the first match with a long enough
	// phrase wins.
	primaryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b` + capPhrase + `[ \t]+(?i:raised|secured|announced)\b`),
		regexp.MustCompile(`\b` + capPhrase + `[ \t]+(?i:reported|generated|posted)\b`),
		regexp.MustCompile(`\b(?i:startup|company)[ \t]+` + capPhrase),
	}

	capSequence = regexp.MustCompile(`\b` + capWord + `(?:[ \t]+` + capWord + `)*\b`)

	orgKeywords = []string{"startup", "company", "firm", "corp"}

	stopWords = map[string]bool{
		"The": true, "This": true, "That": true, "These": true, "Those": true,
		"A": true, "An": true, "And": true, "But": true, "Or": true, "So": true, "Yet": true,
	}
)

// Attributor extracts a company name from article text.
type Attributor struct{}

func NewAttributor() *Attributor {
	return &Attributor{}
}

// Attribute returns the most plausible company name in text, or "" when no
// phrase qualifies.
func (a *Attributor) Attribute(text string) string {
	for _, re := range primaryPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := trimLeadingStopWords(m[1])
			if len(name) >= minLength {
				return name
			}
		}
	}
	return fallback(text)
}

// fallback takes the first run of one to three capitalized words free of
// stop words, but only when the text talks about an organization at all.
func fallback(text string) string {
	lower := strings.ToLower(text)
	mentionsOrg := false
	for _, kw := range orgKeywords {
		if strings.Contains(lower, kw) {
			mentionsOrg = true
			break
		}
	}
	if !mentionsOrg {
		return ""
	}

	for _, seq := range capSequence.FindAllString(text, -1) {
		words := strings.Fields(seq)
		if len(words) > maxWords || containsStopWord(words) {
			continue
		}
		return strings.Join(words, " ")
	}
	return ""
}

func containsStopWord(words []string) bool {
	for _, w := range words {
		if stopWords[w] {
			return true
		}
	}
	return false
}

// trimLeadingStopWords drops sentence-initial articles such as "The" that the
// capitalized-phrase pattern swallows.
func trimLeadingStopWords(phrase string) string {
	words := strings.Fields(phrase)
	for len(words) > 0 && stopWords[words[0]] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}
