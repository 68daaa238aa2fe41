package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nhs-dashboard/internal/models"
	"nhs-dashboard/internal/presentation"
	"nhs-dashboard/internal/services"
	"nhs-dashboard/pkg/logging"
	"nhs-dashboard/pkg/metrics"
)

// DashboardHandler serves the dashboard page and its JSON, SVG and XLSX views
type DashboardHandler struct {
	dashboard *services.DashboardService
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
	started   time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	dashboard *services.DashboardService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    logger,
		metrics:   metricsCollector,
		started:   time.Now().UTC(),
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// SummaryResponse is the body of GET /api/summary
type SummaryResponse struct {
	KPIs  models.KPISummary      `json:"kpis"`
	Cards []presentation.KPICard `json:"cards"`
}

// ModesResponse is the body of GET /api/modes
type ModesResponse struct {
	Placeholder string                `json:"placeholder"`
	Clearable   bool                  `json:"clearable"`
	Options     []presentation.Option `json:"options"`
}

// Dropdown placeholder shown while no mode is selected
const modePlaceholder = "Filter by mode (optional)"

// GetSummary handles GET /api/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, SummaryResponse{
		KPIs:  h.dashboard.Summary(),
		Cards: h.dashboard.Cards(),
	}, http.StatusOK)
}

// GetModes handles GET /api/modes
func (h *DashboardHandler) GetModes(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, ModesResponse{
		Placeholder: modePlaceholder,
		Clearable:   true,
		Options:     h.dashboard.ModeOptions(),
	}, http.StatusOK)
}

// GetModeLine handles GET /api/charts/mode-line?mode=
func (h *DashboardHandler) GetModeLine(w http.ResponseWriter, r *http.Request) {
	fig := h.dashboard.ModeLine(r.Context(), r.URL.Query().Get("mode"), "http")
	h.metrics.RecordChartRender("mode_line", "json")
	h.sendJSON(w, fig, http.StatusOK)
}

// GetSeasonBar handles GET /api/charts/season-bar
func (h *DashboardHandler) GetSeasonBar(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordChartRender("season_bar", "json")
	h.sendJSON(w, h.dashboard.SeasonBar(), http.StatusOK)
}

// GetModeLineSVG handles GET /charts/mode-line.svg?mode=
func (h *DashboardHandler) GetModeLineSVG(w http.ResponseWriter, r *http.Request) {
	fig := h.dashboard.ModeLine(r.Context(), r.URL.Query().Get("mode"), "svg")
	h.sendSVG(w, r, "mode_line", func(buf *bytes.Buffer) error {
		return presentation.RenderLineSVG(buf, fig)
	})
}

// GetSeasonBarSVG handles GET /charts/season-bar.svg
func (h *DashboardHandler) GetSeasonBarSVG(w http.ResponseWriter, r *http.Request) {
	fig := h.dashboard.SeasonBar()
	h.sendSVG(w, r, "season_bar", func(buf *bytes.Buffer) error {
		return presentation.RenderBarSVG(buf, fig)
	})
}

// ExportWorkbook handles GET /api/export.xlsx
func (h *DashboardHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := presentation.WriteWorkbook(&buf, h.dashboard.Aggregates()); err != nil {
		h.logger.Error(r.Context(), "[API_EXPORT_ERROR] Failed to build workbook", logging.Fields{}, err)
		h.metrics.RecordAPIError("export_error", "/api/export.xlsx")
		h.sendError(w, "failed to build workbook", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="nhs-appointments.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// HealthCheck handles GET /health
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	agg := h.dashboard.Aggregates()

	status := map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"started_at": h.started.Format(time.RFC3339),
		"records":    agg.RecordCount,
		"modes":      len(agg.Modes),
	}

	h.logger.Debug(r.Context(), "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// sendSVG renders into a buffer first so a failed render can still produce a
// proper error status. A figure with no data answers 204.
func (h *DashboardHandler) sendSVG(w http.ResponseWriter, r *http.Request, chart string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	err := render(&buf)
	switch {
	case errors.Is(err, presentation.ErrNoData):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		h.logger.Error(r.Context(), "[API_RENDER_ERROR] Failed to render chart", logging.Fields{
			"chart": chart,
		}, err)
		h.metrics.RecordAPIError("render_error", r.URL.Path)
		h.sendError(w, "failed to render chart", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordChartRender(chart, "svg")
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// sendJSON sends a JSON response
func (h *DashboardHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *DashboardHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}

// RegisterRoutes registers all dashboard routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Page).Methods("GET")
	router.HandleFunc("/api/summary", h.GetSummary).Methods("GET")
	router.HandleFunc("/api/modes", h.GetModes).Methods("GET")
	router.HandleFunc("/api/charts/mode-line", h.GetModeLine).Methods("GET")
	router.HandleFunc("/api/charts/season-bar", h.GetSeasonBar).Methods("GET")
	router.HandleFunc("/api/export.xlsx", h.ExportWorkbook).Methods("GET")
	router.HandleFunc("/charts/mode-line.svg", h.GetModeLineSVG).Methods("GET")
	router.HandleFunc("/charts/season-bar.svg", h.GetSeasonBarSVG).Methods("GET")
	router.HandleFunc("/ws/mode-line", h.ModeLineSocket).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

// NewRouter builds the complete router with middleware. /metrics serves
// gatherer, which should be the registry metricsCollector was built on.
func NewRouter(h *DashboardHandler, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware, RecoveryMiddleware(logger), LoggingMiddleware(logger, metricsCollector))

	h.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	return router
}
