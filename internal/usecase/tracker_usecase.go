package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/entity"
	"github.com/user/revenue-tracker/internal/repository"
)

// Runner is the core operation the tracker drives.
type Runner interface {
	Run(ctx context.Context, sources []entity.SourceDescriptor) []entity.RevenueCandidate
}

// RunReport summarises one finished run.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Sources    []string
	Candidates []entity.RevenueCandidate
	SaveErrors int
}

// Tracker runs the pipeline over the configured sources, persists the
// candidates and allows one run at a time.
type Tracker struct {
	runner  Runner
	sources []entity.SourceDescriptor
	store   repository.CandidateRepository // optional
	logger  *zap.Logger

	running atomic.Bool
	mu      sync.RWMutex
	last    *RunReport
}

func NewTracker(runner Runner, sources []entity.SourceDescriptor, store repository.CandidateRepository, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{runner: runner, sources: sources, store: store, logger: logger}
}

// Sources returns the sources each run covers.
func (t *Tracker) Sources() []entity.SourceDescriptor {
	return t.sources
}

// RunOnce performs a full run synchronously.
func (t *Tracker) RunOnce(ctx context.Context) (*RunReport, error) {
	if !t.running.CompareAndSwap(false, true) {
		return nil, repository.ErrRunInProgress
	}
	defer t.running.Store(false)
	return t.run(ctx, uuid.NewString()), nil
}

// Start launches a run in the background and returns its id. The run uses
// ctx for cancellation, so pass a context that outlives the caller's request.
func (t *Tracker) Start(ctx context.Context) (string, error) {
	if !t.running.CompareAndSwap(false, true) {
		return "", repository.ErrRunInProgress
	}
	id := uuid.NewString()
	go func() {
		defer t.running.Store(false)
		t.run(ctx, id)
	}()
	return id, nil
}

func (t *Tracker) Running() bool {
	return t.running.Load()
}

// LastReport returns the most recent finished run, or nil.
func (t *Tracker) LastReport() *RunReport {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func (t *Tracker) run(ctx context.Context, id string) *RunReport {
	log := t.logger.With(zap.String("run_id", id))
	report := &RunReport{RunID: id, StartedAt: time.Now()}
	for _, s := range t.sources {
		report.Sources = append(report.Sources, s.ID)
	}
	log.Info("run started", zap.Strings("sources", report.Sources))

	report.Candidates = t.runner.Run(WithRunID(ctx, id), t.sources)

	if t.store != nil {
		// Candidates are complete articles; persist them even if the run was cut short.
		saveCtx := context.WithoutCancel(ctx)
		for _, c := range report.Candidates {
			if err := t.store.Save(saveCtx, c); err != nil {
				report.SaveErrors++
				log.Error("saving candidate failed", zap.String("url", c.Article.URL), zap.Error(err))
			}
		}
	}

	report.FinishedAt = time.Now()
	log.Info("run finished",
		zap.Int("candidates", len(report.Candidates)),
		zap.Int("save_errors", report.SaveErrors),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))

	t.mu.Lock()
	t.last = report
	t.mu.Unlock()
	return report
}

// Summary is a short human-readable line for a report.
func (r *RunReport) Summary() string {
	return fmt.Sprintf("run %s: %d sources, %d candidates in %s",
		r.RunID, len(r.Sources), len(r.Candidates), r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
}
