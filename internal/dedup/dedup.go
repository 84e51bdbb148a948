// Package dedup suppresses articles that were already ingested, keyed on the
// exact canonical URL.
package dedup

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/repository"
)

// Deduplicator keeps an in-process index of claimed URLs and, when given a
// SeenIndex, delegates to it so the index survives restarts and is shared
// across processes.
type Deduplicator struct {
	seen   sync.Map
	index  repository.SeenIndex
	logger *zap.Logger
}

// New creates a Deduplicator. index may be nil for a purely in-memory index.
func New(index repository.SeenIndex, logger *zap.Logger) *Deduplicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduplicator{index: index, logger: logger}
}

// Claim marks url as seen and reports whether the caller is the first to do
// so. Concurrent claims for one url yield exactly one true.
func (d *Deduplicator) Claim(ctx context.Context, url string) (bool, error) {
	if _, loaded := d.seen.LoadOrStore(url, struct{}{}); loaded {
		return false, nil
	}
	if d.index == nil {
		return true, nil
	}

	inserted, err := d.index.Claim(ctx, url)
	if err != nil {
		d.seen.Delete(url)
		return false, fmt.Errorf("claim %s: %w", url, err)
	}
	return inserted, nil
}

// Exists reports whether url has been claimed before.
func (d *Deduplicator) Exists(ctx context.Context, url string) (bool, error) {
	if _, ok := d.seen.Load(url); ok {
		return true, nil
	}
	if d.index == nil {
		return false, nil
	}
	return d.index.Exists(ctx, url)
}

// Record marks url as seen regardless of whether it was seen before.
func (d *Deduplicator) Record(ctx context.Context, url string) error {
	_, err := d.Claim(ctx, url)
	return err
}

// Release forgets url so that a later run may claim it again.
func (d *Deduplicator) Release(ctx context.Context, url string) error {
	d.seen.Delete(url)
	if d.index == nil {
		return nil
	}
	if err := d.index.Release(ctx, url); err != nil {
		return fmt.Errorf("release %s: %w", url, err)
	}
	d.logger.Debug("released dedup claim", zap.String("url", url))
	return nil
}
