package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/delivery/http/response"
	"github.com/user/revenue-tracker/internal/entity"
	"github.com/user/revenue-tracker/internal/repository"
	"github.com/user/revenue-tracker/internal/usecase"
)

// RunController starts pipeline runs and reports on them.
type RunController interface {
	Start(ctx context.Context) (string, error)
	Running() bool
	LastReport() *usecase.RunReport
	Sources() []entity.SourceDescriptor
}

// AlertLister lists undelivered alerts.
type AlertLister interface {
	Pending(ctx context.Context) ([]entity.Alert, error)
}

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	runs    RunController
	alerts  AlertLister // nil when no store is configured
	checks  map[string]HealthCheck
	baseCtx context.Context
	logger  *zap.Logger
}

// NewHandler creates a Handler. Runs started over HTTP are bound to baseCtx
// rather than to the triggering request.
func NewHandler(baseCtx context.Context, runs RunController, alerts AlertLister, checks map[string]HealthCheck, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		runs:    runs,
		alerts:  alerts,
		checks:  checks,
		baseCtx: baseCtx,
		logger:  logger,
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Error("health check failed", zap.String("dependency", name), zap.Error(err))
			status[name] = "unhealthy"
			healthy = false
			continue
		}
		status[name] = "healthy"
	}

	if !healthy {
		status["status"] = "degraded"
		h.writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) HandleListSources(w http.ResponseWriter, r *http.Request) {
	sources := h.runs.Sources()
	resp := make([]response.SourceResponse, 0, len(sources))
	for _, s := range sources {
		resp = append(resp, response.NewSource(s))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleStartRun(w http.ResponseWriter, r *http.Request) {
	runID, err := h.runs.Start(h.baseCtx)
	if err != nil {
		if errors.Is(err, repository.ErrRunInProgress) {
			h.writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("failed to start run", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusAccepted, response.RunAcceptedResponse{Status: "accepted", RunID: runID})
}

func (h *Handler) HandleLastRun(w http.ResponseWriter, r *http.Request) {
	report := h.runs.LastReport()
	if report == nil {
		h.writeJSONError(w, "No run has finished yet", http.StatusNotFound)
		return
	}
	resp := response.RunReportResponse{
		RunID:      report.RunID,
		Running:    h.runs.Running(),
		StartedAt:  &report.StartedAt,
		FinishedAt: &report.FinishedAt,
		Sources:    report.Sources,
		Candidates: candidates(report.Candidates),
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleListCandidates returns the last run's candidates, or the store's
// pending alerts when pending=true.
func (h *Handler) HandleListCandidates(w http.ResponseWriter, r *http.Request) {
	pending := false
	if raw := r.URL.Query().Get("pending"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeJSONError(w, "pending must be a boolean", http.StatusBadRequest)
			return
		}
		pending = v
	}

	if !pending {
		var out []response.CandidateResponse
		if report := h.runs.LastReport(); report != nil {
			out = candidates(report.Candidates)
		}
		if out == nil {
			out = []response.CandidateResponse{}
		}
		h.writeJSON(w, http.StatusOK, out)
		return
	}

	if h.alerts == nil {
		h.writeJSONError(w, "No candidate store configured", http.StatusServiceUnavailable)
		return
	}
	alerts, err := h.alerts.Pending(r.Context())
	if err != nil {
		h.logger.Error("failed to list pending alerts", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	out := make([]response.AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, response.NewAlert(a))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func candidates(in []entity.RevenueCandidate) []response.CandidateResponse {
	out := make([]response.CandidateResponse, 0, len(in))
	for _, c := range in {
		out = append(out, response.NewCandidate(c))
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
