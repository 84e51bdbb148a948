package entity

import (
	"strings"
	"time"
)

// DisclosureKind is the category of a disclosed financial figure.
type DisclosureKind string

const (
	KindRevenue  DisclosureKind = "revenue"
	KindARR      DisclosureKind = "ARR"
	KindBookings DisclosureKind = "bookings"
	KindSales    DisclosureKind = "sales"
)

// ParseDisclosureKind maps a matched kind token onto a DisclosureKind.
// "annual recurring revenue" is reported as ARR.
func ParseDisclosureKind(token string) (DisclosureKind, bool) {
	t := strings.ToLower(strings.Join(strings.Fields(token), ""))
	switch t {
	case "revenue":
		return KindRevenue, true
	case "arr", "annualrecurringrevenue":
		return KindARR, true
	case "bookings":
		return KindBookings, true
	case "sales":
		return KindSales, true
	}
	return "", false
}

// RevenueSignal is a single disclosure found in article text. Amount is
// always expressed in millions.
type RevenueSignal struct {
	Kind   DisclosureKind
	Amount float64
	Span   string
}

// Decision tells downstream collaborators what to do with a candidate.
type Decision string

const (
	DecisionEmit     Decision = "emit"
	DecisionSuppress Decision = "suppress"
)

// RevenueCandidate is the output of one pipeline pass for one article.
type RevenueCandidate struct {
	Article  NormalizedArticle
	Signal   RevenueSignal
	Company  string
	Decision Decision
}

// Alert mirrors a row of the `revenue_alerts` table.
type Alert struct {
	ID           int64
	ArticleURL   string
	ArticleTitle string
	SourceID     string
	Company      string
	Kind         DisclosureKind
	Amount       float64
	PublishedAt  *time.Time
	Sent         bool
	CreatedAt    time.Time
}

// StoreStats summarises the candidate store.
type StoreStats struct {
	TotalArticles   int64
	RevenueArticles int64
	PendingAlerts   int64
}
