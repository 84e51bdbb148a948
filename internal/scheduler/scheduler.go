// Package scheduler runs the tracker's recurring jobs on cron expressions.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/repository"
	"github.com/user/revenue-tracker/internal/usecase"
)

// RunFunc performs one pipeline run.
type RunFunc func(ctx context.Context) (*usecase.RunReport, error)

// Dispatcher delivers stored alerts.
type Dispatcher interface {
	SendPending(ctx context.Context) (int, error)
	SendSummary(ctx context.Context) error
}

// Scheduler registers the scrape and summary jobs.
type Scheduler struct {
	cron     *cron.Cron
	parser   cron.Parser
	run      RunFunc
	alerts   Dispatcher // nil without a store
	logger   *zap.Logger
	entryIDs map[string]cron.EntryID
}

func New(run RunFunc, alerts Dispatcher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron:     cron.New(cron.WithParser(parser), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		parser:   parser,
		run:      run,
		alerts:   alerts,
		logger:   logger,
		entryIDs: map[string]cron.EntryID{},
	}
}

// Schedule registers the scrape job on scrapeExpr and, when alerts are
// available and summaryExpr is not empty, the weekly summary on summaryExpr.
// Jobs run with ctx.
func (s *Scheduler) Schedule(ctx context.Context, scrapeExpr, summaryExpr string) error {
	if err := s.add("scrape", scrapeExpr, func() { s.Scrape(ctx) }); err != nil {
		return err
	}
	if s.alerts == nil || summaryExpr == "" {
		return nil
	}
	return s.add("summary", summaryExpr, func() {
		if err := s.alerts.SendSummary(ctx); err != nil {
			s.logger.Error("weekly summary failed", zap.Error(err))
		}
	})
}

func (s *Scheduler) add(name, expr string, job func()) error {
	schedule, err := s.parser.Parse(expr)
	if err != nil {
		return fmt.Errorf("parse %s schedule %q: %w", name, expr, err)
	}
	s.entryIDs[name] = s.cron.Schedule(schedule, cron.FuncJob(job))
	s.logger.Info("job scheduled", zap.String("job", name), zap.String("schedule", expr))
	return nil
}

// Scrape runs the pipeline once and then dispatches pending alerts. A run
// already in progress is skipped.
func (s *Scheduler) Scrape(ctx context.Context) {
	report, err := s.run(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrRunInProgress) {
			s.logger.Info("scheduled run skipped, a run is already in progress")
			return
		}
		s.logger.Error("scheduled run failed", zap.Error(err))
		return
	}
	s.logger.Info(report.Summary())

	if s.alerts == nil || ctx.Err() != nil {
		return
	}
	if _, err := s.alerts.SendPending(ctx); err != nil {
		s.logger.Error("alert dispatch failed", zap.Error(err))
	}
}

// Entries reports the registered job names with their entries.
func (s *Scheduler) Entries() map[string]cron.Entry {
	out := make(map[string]cron.Entry, len(s.entryIDs))
	for name, id := range s.entryIDs {
		out[name] = s.cron.Entry(id)
	}
	return out
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and returns a context that is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
