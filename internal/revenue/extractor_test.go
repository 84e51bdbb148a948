package revenue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/revenue-tracker/internal/entity"
)

func TestExtract_Disclosures(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		kind   entity.DisclosureKind
		amount float64
	}{
		{"dollar million in kind", "Acme Corp reported $45 million in ARR", entity.KindARR, 45},
		{"dollar billion", "$2.5 billion revenue", entity.KindRevenue, 2500},
		{"unit M", "The company crossed $120M ARR this quarter.", entity.KindARR, 120},
		{"unit mn", "Orbit posted $55mn in bookings", entity.KindBookings, 55},
		{"no dollar sign with USD", "It generated 45 million USD in sales last year.", entity.KindSales, 45},
		{"keyword first revenue", "DefCorp reported revenue of $75 million for the fiscal year", entity.KindRevenue, 75},
		{"keyword first ARR", "ARR reached $90 million in March", entity.KindARR, 90},
		{"keyword first bookings", "Bookings hit 64 million last quarter", entity.KindBookings, 64},
		{"long-form ARR", "has reached $50 million in annual recurring revenue", entity.KindARR, 50},
		{"thousands separator", "$1,200 million in revenue", entity.KindRevenue, 1200},
		{"billion without dollar", "a 3 billion dollar in sales milestone", entity.KindSales, 3000},
		{"case-insensitive", "$31 MILLION IN REVENUE", entity.KindRevenue, 31},
	}

	ex := NewExtractor(30, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := ex.Extract(tt.text)
			require.True(t, ok, "expected a signal in %q", tt.text)
			assert.Equal(t, tt.kind, sig.Kind)
			assert.InDelta(t, tt.amount, sig.Amount, 1e-9)
			assert.NotEmpty(t, sig.Span)
			assert.Contains(t, tt.text, sig.Span)
		})
	}
}

func TestExtract_NoSignal(t *testing.T) {
	ex := NewExtractor(30, nil)
	for _, text := range []string{
		"",
		"Tiny Startup raised $5 million Series A",
		"Acme raised $100 million Series C led by Sequoia", // funding is not a disclosure kind
		"The company has 45 million users",
		"Revenue grew strongly, executives said.",
		"ARR hit 120 months after launch",
		"revenue of 50 more customers",
		"40 msales",
		"$2 billionaire sales pitch",
	} {
		_, ok := ex.Extract(text)
		assert.False(t, ok, text)
	}
}

func TestExtract_ThresholdGate(t *testing.T) {
	ex := NewExtractor(30, nil)

	_, ok := ex.Extract("having generated $25 million in revenue last year")
	assert.False(t, ok, "sub-threshold disclosure must not surface")

	sig, ok := ex.Extract("$30 million ARR")
	require.True(t, ok, "threshold is inclusive")
	assert.InDelta(t, 30.0, sig.Amount, 1e-9)

	high := NewExtractor(100, nil)
	_, ok = high.Extract("$75 million in revenue")
	assert.False(t, ok)
}

func TestExtract_ContinuesPastSubThresholdMatch(t *testing.T) {
	ex := NewExtractor(30, nil)
	sig, ok := ex.Extract("It made $10 million in revenue in 2022 and $60 million in bookings in 2023.")
	require.True(t, ok)
	assert.Equal(t, entity.KindBookings, sig.Kind)
	assert.InDelta(t, 60.0, sig.Amount, 1e-9)
}

func TestExtract_PatternOrderBeatsTextPosition(t *testing.T) {
	// The keyword-led match comes first in the text, but the dollar-prefixed
	// pattern is earlier in the list and is checked in full first.
	text := "Revenue hit $80 million last year. Separately, the firm booked $40 million in sales."

	sig, ok := NewExtractor(30, nil).Extract(text)
	require.True(t, ok)
	assert.Equal(t, entity.KindSales, sig.Kind)
	assert.InDelta(t, 40.0, sig.Amount, 1e-9)
}

func TestExtract_FirstPositionWithinPattern(t *testing.T) {
	sig, ok := NewExtractor(30, nil).Extract("$50 million in revenue and $90 million in ARR")
	require.True(t, ok)
	assert.Equal(t, entity.KindRevenue, sig.Kind)
	assert.InDelta(t, 50.0, sig.Amount, 1e-9)
}

func TestExtract_UnparseableAmountIsSkipped(t *testing.T) {
	patterns := []Pattern{
		newPattern("loose", "", `(?P<amount>[\w.]+) (?P<unit>million) (?P<kind>revenue)`),
	}
	ex := NewExtractorWithPatterns(30, patterns, nil)

	sig, ok := ex.Extract("forty million revenue, then 50 million revenue")
	require.True(t, ok)
	assert.InDelta(t, 50.0, sig.Amount, 1e-9)
}

func TestDefaultPatterns_Order(t *testing.T) {
	var names []string
	for _, p := range DefaultPatterns() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"dollar-million-kind",
		"million-kind",
		"revenue-amount",
		"arr-amount",
		"bookings-amount",
		"dollar-billion-kind",
		"billion-kind",
	}, names)
}

func TestNewExtractor_DefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewExtractor(0, nil).Threshold())
	assert.Equal(t, 12.5, NewExtractor(12.5, nil).Threshold())
}
