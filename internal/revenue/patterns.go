package revenue

import (
	"regexp"

	"github.com/user/revenue-tracker/internal/entity"
)

const (
	ignoreCase  = `(?i)`
	amountExpr  = `(?P<amount>\d+(?:,\d{3})*(?:\.\d+)?)`
	millionExpr = `(?P<unit>million|M|mn)\b`
	billionExpr = `(?P<unit>billion)\b`
	kindExpr    = `(?P<kind>revenue|ARR|annual\s*recurring\s*revenue|bookings|sales)`
	verbExpr    = `(?:of|reached|hit|generated|reported)?`
)

// Pattern is one entry of the ordered disclosure pattern list. Every
// expression captures "amount" and "unit"; expressions without a "kind"
// group report Kind.
type Pattern struct {
	Name string
	Kind entity.DisclosureKind
	re   *regexp.Regexp
}

func newPattern(name string, kind entity.DisclosureKind, expr string) Pattern {
	return Pattern{Name: name, Kind: kind, re: regexp.MustCompile(ignoreCase + expr)}
}

// DefaultPatterns returns the disclosure patterns in priority order. Reordering
// this list changes which disclosure wins for an article.
func DefaultPatterns() []Pattern {
	return []Pattern{
		newPattern("dollar-million-kind", "",
			`\$`+amountExpr+`\s*`+millionExpr+`\s*(?:in\s*)?`+kindExpr),
		newPattern("million-kind", "",
			amountExpr+`\s*`+millionExpr+`\s*(?:dollar|USD)?\s*(?:in\s*)?`+kindExpr),
		newPattern("revenue-amount", entity.KindRevenue,
			`\brevenue\s*`+verbExpr+`\s*\$?`+amountExpr+`\s*`+millionExpr),
		newPattern("arr-amount", entity.KindARR,
			`\bARR\s*`+verbExpr+`\s*\$?`+amountExpr+`\s*`+millionExpr),
		newPattern("bookings-amount", entity.KindBookings,
			`\bbookings\s*`+verbExpr+`\s*\$?`+amountExpr+`\s*`+millionExpr),
		newPattern("dollar-billion-kind", "",
			`\$`+amountExpr+`\s*`+billionExpr+`\s*(?:in\s*)?`+kindExpr),
		newPattern("billion-kind", "",
			amountExpr+`\s*`+billionExpr+`\s*(?:dollar|USD)?\s*(?:in\s*)?`+kindExpr),
	}
}

// match is a raw hit of a pattern before amount parsing.
type match struct {
	amount string
	unit   string
	kind   string
	span   string
}

// findAll returns every non-overlapping match in text, in position order.
func (p Pattern) findAll(text string) []match {
	names := p.re.SubexpNames()
	var out []match
	for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
		m := match{span: text[loc[0]:loc[1]]}
		for i, name := range names {
			if name == "" || loc[2*i] < 0 {
				continue
			}
			v := text[loc[2*i]:loc[2*i+1]]
			switch name {
			case "amount":
				m.amount = v
			case "unit":
				m.unit = v
			case "kind":
				m.kind = v
			}
		}
		out = append(out, m)
	}
	return out
}
