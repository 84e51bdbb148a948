package repository

import (
	"context"
	"time"

	"github.com/user/revenue-tracker/internal/entity"
)

// CandidateRepository persists pipeline output and tracks alert delivery.
type CandidateRepository interface {
	// Save stores the candidate's article and, for emitted candidates, a
	// pending alert. Saving the same article twice updates it.
	Save(ctx context.Context, c entity.RevenueCandidate) error
	// ListPending returns unsent alerts at or above minAmount.
	ListPending(ctx context.Context, minAmount float64) ([]entity.Alert, error)
	// ListSentSince returns alerts sent after since, newest first.
	ListSentSince(ctx context.Context, since time.Time) ([]entity.Alert, error)
	// MarkSent flags the given alerts as delivered.
	MarkSent(ctx context.Context, ids []int64) error
	Stats(ctx context.Context) (*entity.StoreStats, error)
}

// Notifier delivers alerts to an operator.
type Notifier interface {
	// NotifyAlerts sends one digest covering all alerts.
	NotifyAlerts(ctx context.Context, alerts []entity.Alert) error
	// NotifySummary sends the periodic store summary.
	NotifySummary(ctx context.Context, stats entity.StoreStats, recent []entity.Alert) error
}
