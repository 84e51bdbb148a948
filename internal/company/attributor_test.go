package company

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttribute_Primary(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"reported", "Acme Corp reported $45 million in ARR", "Acme Corp"},
		{"raised", "Tiny Startup raised $5 million Series A", "Tiny Startup"},
		{"announced acronym", "Earlier today XYZ announced it reached $50 million", "XYZ"},
		{"following company", "shares of the company Globex Holdings climbed after results", "Globex Holdings"},
		{"leading article trimmed", "The Initech Group posted record bookings", "Initech Group"},
		{"verb case", "Hooli Reported revenue of $80 million", "Hooli"},
	}

	a := NewAttributor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Attribute(tt.text))
		})
	}
}

func TestAttribute_PatternPriority(t *testing.T) {
	// "generated" appears first in the text, but the raised/secured/announced
	// pattern is tried first.
	text := "Umbrella generated $40 million in sales. Stark Industries secured new funding."
	assert.Equal(t, "Stark Industries", NewAttributor().Attribute(text))
}

func TestAttribute_ShortPhraseSkipped(t *testing.T) {
	// "AI" is too short; the next match is used.
	text := "AI raised eyebrows. Pied Piper raised $60 million."
	assert.Equal(t, "Pied Piper", NewAttributor().Attribute(text))
}

func TestAttribute_Fallback(t *testing.T) {
	a := NewAttributor()

	// No primary verb; the org keyword enables the capitalized-word fallback.
	assert.Equal(t, "Wayne Enterprises",
		a.Attribute("revenue at the firm Wayne Enterprises topped $90 million"))

	// Stop-word sequences are skipped.
	assert.Equal(t, "Cyberdyne",
		a.Attribute("The Board met today. Cyberdyne is a robotics firm with $70 million in revenue"))

	// Without an organization keyword nothing is returned.
	assert.Equal(t, "", a.Attribute("revenue at Wayne Enterprises topped $90 million"))
}

func TestAttribute_FallbackRejectsLongSequences(t *testing.T) {
	text := "the firm North Atlantic Shipping Container Lines grew; Vandelay sells latex"
	assert.Equal(t, "Vandelay", NewAttributor().Attribute(text))
}

func TestAttribute_Empty(t *testing.T) {
	a := NewAttributor()
	assert.Equal(t, "", a.Attribute(""))
	assert.Equal(t, "", a.Attribute("nothing capitalized here at all"))
}
