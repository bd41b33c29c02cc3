package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yegors/hamsearch/internal/audit"
	"github.com/yegors/hamsearch/internal/lookup"
	"github.com/yegors/hamsearch/internal/outcome"
	"github.com/yegors/hamsearch/pkg/logger"
)

// UserHeader names the caller for the audit log. Requests without it are
// recorded under their remote address.
const UserHeader = "X-Hamsearch-User"

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// Executor runs a named bot command
type Executor interface {
	Execute(ctx context.Context, inv lookup.Invocation, command string, args []string) outcome.Outcome
}

// AuditLog is the queryable side of the audit trail
type AuditLog interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
	ByUser(ctx context.Context, user string, limit int) ([]audit.Entry, error)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status string    `json:"status"`
	Uptime string    `json:"uptime"`
	Time   time.Time `json:"time"`
}

// Handler serves the command endpoints
type Handler struct {
	service  Executor
	auditLog AuditLog
	started  time.Time
	logger   *logger.Logger
}

// NewHandler creates a new handler. auditLog may be nil, in which case the
// audit endpoint reports 404.
func NewHandler(service Executor, auditLog AuditLog, logger *logger.Logger) *Handler {
	return &Handler{
		service:  service,
		auditLog: auditLog,
		started:  time.Now(),
		logger:   logger.Named("api-handler"),
	}
}

// GetLookup handles GET /api/v1/lookup/{callsign}
func (h *Handler) GetLookup(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, lookup.CommandLookup, chi.URLParam(r, "callsign"))
}

// GetStats handles GET /api/v1/stats/{callsign}
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, lookup.CommandStats, chi.URLParam(r, "callsign"))
}

// GetDistance handles GET /api/v1/distance/{from}/{to}
func (h *Handler) GetDistance(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, lookup.CommandDistance, chi.URLParam(r, "from"), chi.URLParam(r, "to"))
}

// GetConditions handles GET /api/v1/conditions
func (h *Handler) GetConditions(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, lookup.CommandConditions)
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, HealthResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Round(time.Second).String(),
		Time:   time.Now().UTC(),
	}, http.StatusOK)
}

// GetAudit handles GET /api/v1/audit?user=&limit=
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	if h.auditLog == nil {
		h.sendError(w, "audit log is not queryable; configure audit.sqlite_path", http.StatusNotFound)
		return
	}

	limit := defaultAuditLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l <= 0 || l > maxAuditLimit {
			h.sendError(w, "limit must be between 1 and "+strconv.Itoa(maxAuditLimit), http.StatusBadRequest)
			return
		}
		limit = l
	}

	var (
		entries []audit.Entry
		err     error
	)
	if user := r.URL.Query().Get("user"); user != "" {
		entries, err = h.auditLog.ByUser(r.Context(), user, limit)
	} else {
		entries, err = h.auditLog.Recent(r.Context(), limit)
	}
	if err != nil {
		h.logger.WithRequestID(middleware.GetReqID(r.Context())).Error("Failed to query audit log", logger.Error(err))
		h.sendError(w, outcome.GenericFailureMessage, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}

	h.sendJSON(w, entries, http.StatusOK)
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request, command string, args ...string) {
	inv := lookup.Invocation{
		User:   requestUser(r),
		Source: "api",
	}

	out := h.service.Execute(r.Context(), inv, command, args)
	if !out.OK() {
		h.sendJSON(w, ErrorResponse{
			Error:   string(out.Failure.Kind),
			Message: out.Failure.UserMessage,
			Code:    statusFor(out.Failure.Kind),
		}, statusFor(out.Failure.Kind))
		return
	}

	h.sendJSON(w, out, http.StatusOK)
}

// statusFor maps a failure kind onto an HTTP status
func statusFor(kind outcome.Kind) int {
	switch kind {
	case outcome.KindNotFound, outcome.KindStatsNotFound:
		return http.StatusNotFound
	case outcome.KindUpstreamUnavailable:
		return http.StatusBadGateway
	case outcome.KindInvalidArguments:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func requestUser(r *http.Request) string {
	if u := r.Header.Get(UserHeader); u != "" {
		return u
	}
	return r.RemoteAddr
}

func (h *Handler) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}
