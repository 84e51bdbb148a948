package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/entity"
	"github.com/user/revenue-tracker/internal/repository"
)

const summaryWindow = 7 * 24 * time.Hour

// AlertDispatcher moves pending alerts from the store to the notifier.
type AlertDispatcher struct {
	store     repository.CandidateRepository
	notifier  repository.Notifier
	threshold float64
	now       func() time.Time
	logger    *zap.Logger
}

func NewAlertDispatcher(store repository.CandidateRepository, notifier repository.Notifier, threshold float64, logger *zap.Logger) *AlertDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertDispatcher{store: store, notifier: notifier, threshold: threshold, now: time.Now, logger: logger}
}

// Pending lists alerts that have not been delivered yet.
func (d *AlertDispatcher) Pending(ctx context.Context) ([]entity.Alert, error) {
	return d.store.ListPending(ctx, d.threshold)
}

// SendPending sends all pending alerts as one digest and marks them sent.
// Alerts stay pending when delivery fails.
func (d *AlertDispatcher) SendPending(ctx context.Context) (int, error) {
	alerts, err := d.store.ListPending(ctx, d.threshold)
	if err != nil {
		return 0, fmt.Errorf("list pending alerts: %w", err)
	}
	if len(alerts) == 0 {
		d.logger.Info("no pending alerts")
		return 0, nil
	}

	if err := d.notifier.NotifyAlerts(ctx, alerts); err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}

	ids := make([]int64, len(alerts))
	for i, a := range alerts {
		ids[i] = a.ID
	}
	if err := d.store.MarkSent(ctx, ids); err != nil {
		return 0, fmt.Errorf("mark sent: %w", err)
	}
	d.logger.Info("alerts sent", zap.Int("count", len(alerts)))
	return len(alerts), nil
}

// SendSummary sends the store statistics with the alerts of the last week.
func (d *AlertDispatcher) SendSummary(ctx context.Context) error {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("store stats: %w", err)
	}
	recent, err := d.store.ListSentSince(ctx, d.now().Add(-summaryWindow))
	if err != nil {
		return fmt.Errorf("list recent alerts: %w", err)
	}
	if err := d.notifier.NotifySummary(ctx, *stats, recent); err != nil {
		return fmt.Errorf("notify summary: %w", err)
	}
	d.logger.Info("weekly summary sent", zap.Int("recent_alerts", len(recent)))
	return nil
}
