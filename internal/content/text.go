package content

import (
	"strings"
	"unicode/utf8"
)

// normalizeText trims every line, collapses runs of blanks inside a line and
// drops empty lines.
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// truncate cuts s to at most max runes.
func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func longEnough(s string, min int) bool {
	return utf8.RuneCountInString(s) > min
}

// titleFromBody picks the first line that looks like a headline.
func titleFromBody(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if n := utf8.RuneCountInString(line); n > 10 && n < 200 {
			return line
		}
	}
	return ""
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
