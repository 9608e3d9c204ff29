// Package httptransport is the thin HTTP layer over the event dispatcher and
// reporting services. It owns no business logic; the external chat transport
// posts event envelopes here and renders the prompts that come back.
package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatekeeper/internal/audit"
	"gatekeeper/internal/checkin/stats"
	"gatekeeper/internal/dispatch"
	"gatekeeper/internal/events"
	"gatekeeper/internal/platform/middleware"
	dErrors "gatekeeper/pkg/domain-errors"
)

const defaultLogLimit = 15

// Handler wires the HTTP surface. Operator identity comes from the bearer
// token; the event envelope's operator_id is always overridden by it so a
// token can never act for another operator.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	guard      *dispatch.Guard
	stats      *stats.Service
	auditStore audit.Store
	validator  middleware.TokenValidator
	logger     *slog.Logger
}

func New(
	dispatcher *dispatch.Dispatcher,
	guard *dispatch.Guard,
	statsSvc *stats.Service,
	auditStore audit.Store,
	validator middleware.TokenValidator,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		guard:      guard,
		stats:      statsSvc,
		auditStore: auditStore,
		validator:  validator,
		logger:     logger,
	}
}

// Router builds the chi router with the full middleware chain.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.Post("/v1/events", h.handleEvent)
		r.Post("/v1/session/start", h.handleStartSession)
		r.Post("/v1/upload/request", h.handleRequestUpload)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Get("/v1/stats", h.handleStats)
			r.Get("/v1/export/present", h.handleExportPresent)
			r.Get("/v1/export/absent", h.handleExportAbsent)
			r.Get("/v1/logs", h.handleLogs)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var ev events.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event body"))
		return
	}
	if !ev.Kind.IsValid() {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "unknown event kind"))
		return
	}
	ev.OperatorID = middleware.GetOperatorID(ctx)

	prompt := h.dispatcher.Dispatch(ctx, ev)
	writeJSON(w, http.StatusOK, prompt)
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	prompt := h.dispatcher.StartSession(ctx, middleware.GetOperatorID(ctx))
	writeJSON(w, http.StatusOK, prompt)
}

func (h *Handler) handleRequestUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	prompt := h.dispatcher.RequestUpload(ctx, middleware.GetOperatorID(ctx))
	writeJSON(w, http.StatusOK, prompt)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.stats.Summary(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "stats summary failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "stats unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	entries, err := h.auditStore.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit log unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// requireAdmin gates elevated routes on the supplied admin list.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operatorID := middleware.GetOperatorID(r.Context())
		if !h.guard.IsAdmin(operatorID) {
			h.logger.WarnContext(r.Context(), "admin route denied",
				"operator_id", operatorID,
				"path", r.URL.Path,
			)
			writeError(w, dErrors.New(dErrors.CodeForbidden, "admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler emits the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.HTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": string(code)})
}
