package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"nhs-dashboard/internal/models"
	"nhs-dashboard/internal/presentation"
	"nhs-dashboard/internal/services"
	"nhs-dashboard/pkg/logging"
	"nhs-dashboard/pkg/metrics"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func newTestRouter(t *testing.T, records []*models.AppointmentRecord) (*mux.Router, *metrics.Collector) {
	t.Helper()
	logger := logging.NewNopLogger()
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("test", reg)

	svc := services.NewDashboardService(services.Aggregate(records), logger, collector)
	return NewRouter(NewDashboardHandler(svc, logger, collector), logger, collector, reg), collector
}

func scenarioRecords() []*models.AppointmentRecord {
	return []*models.AppointmentRecord{
		models.NewAppointmentRecord(month(2023, time.January), "Face-to-Face", 1000),
		models.NewAppointmentRecord(month(2023, time.January), "Telephone", 500),
		models.NewAppointmentRecord(month(2023, time.July), "Face-to-Face", 1200),
	}
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetSummary(t *testing.T) {
	router, _ := newTestRouter(t, scenarioRecords())

	rec := get(t, router, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var body SummaryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(2700), body.KPIs.TotalAppointments)
	assert.Equal(t, 2, body.KPIs.TotalMonths)
	require.NotNil(t, body.KPIs.AvgPerMonth)
	assert.Equal(t, int64(1350), *body.KPIs.AvgPerMonth)
	require.Len(t, body.Cards, 3)
	assert.Equal(t, "2,700", body.Cards[0].Value)
	assert.Equal(t, "1,350", body.Cards[2].Value)
}

func TestGetSummary_EmptyDataset(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := get(t, router, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"avg_per_month":null`)
	assert.Contains(t, rec.Body.String(), `"value":"N/A"`)
}

func TestGetModes(t *testing.T) {
	router, _ := newTestRouter(t, scenarioRecords())

	rec := get(t, router, "/api/modes")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ModesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Clearable)
	assert.Equal(t, "Filter by mode (optional)", body.Placeholder)
	assert.Equal(t, []presentation.Option{
		{Label: "Face-to-Face", Value: "Face-to-Face"},
		{Label: "Telephone", Value: "Telephone"},
	}, body.Options)
}

func TestGetModeLine(t *testing.T) {
	router, collector := newTestRouter(t, scenarioRecords())

	tests := []struct {
		name       string
		query      string
		wantPoints int
		wantMode   string
		outcome    string
	}{
		{"no filter", "", 3, "", services.OutcomeAll},
		{"known mode", "?mode=Telephone", 1, "Telephone", services.OutcomeMatch},
		{"unknown mode", "?mode=Carrier+Pigeon", 0, "Carrier Pigeon", services.OutcomeNoMatch},
		{"malformed mode", "?mode=" + strings.Repeat("x", 300), 3, "", services.OutcomeMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, "/api/charts/mode-line"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)

			var fig presentation.LineFigure
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&fig))
			assert.Len(t, fig.Points, tt.wantPoints)
			assert.Equal(t, tt.wantMode, fig.Mode)
			assert.Equal(t, presentation.LineTitle, fig.Title)
			assert.Equal(t, 1.0, testutil.ToFloat64(collector.FilterEventsTotal.WithLabelValues("http", tt.outcome)))
		})
	}
}

func TestGetSeasonBar(t *testing.T) {
	router, _ := newTestRouter(t, scenarioRecords())

	rec := get(t, router, "/api/charts/season-bar")
	require.Equal(t, http.StatusOK, rec.Code)

	var fig presentation.BarFigure
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&fig))
	assert.Equal(t, []presentation.BarPoint{
		{Category: "Winter", Value: 1500},
		{Category: "Summer", Value: 1200},
	}, fig.Bars)
}

func TestSVGCharts(t *testing.T) {
	router, collector := newTestRouter(t, scenarioRecords())

	for _, path := range []string{"/charts/mode-line.svg", "/charts/season-bar.svg", "/charts/mode-line.svg?mode=Telephone"} {
		rec := get(t, router, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "<svg")
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.ChartRendersTotal.WithLabelValues("mode_line", "svg")))

	rec := get(t, router, "/charts/mode-line.svg?mode=Unknown")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSVGCharts_EmptyDataset(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	assert.Equal(t, http.StatusNoContent, get(t, router, "/charts/mode-line.svg").Code)
	assert.Equal(t, http.StatusNoContent, get(t, router, "/charts/season-bar.svg").Code)
}

func TestExportWorkbook(t *testing.T) {
	router, _ := newTestRouter(t, scenarioRecords())

	rec := get(t, router, "/api/export.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "nhs-appointments.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Monthly")
}

func TestPage(t *testing.T) {
	router, _ := newTestRouter(t, scenarioRecords())

	rec := get(t, router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "<title>NHS Dashboard</title>")
	assert.Contains(t, body, "NHS Appointments Dashboard")
	assert.Contains(t, body, "Select Appointment Mode:")
	assert.Contains(t, body, `<option value="Telephone">Telephone</option>`)
	assert.Contains(t, body, `id="avg-per-month">1,350<`)
	assert.Contains(t, body, presentation.LineTitle)
	assert.Contains(t, body, presentation.BarTitle)
}

func TestPage_EscapesModes(t *testing.T) {
	router, _ := newTestRouter(t, []*models.AppointmentRecord{
		models.NewAppointmentRecord(month(2023, time.March), "<script>alert(1)</script>", 1),
	})

	body := get(t, router, "/").Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
}

func TestHealthAndDocs(t *testing.T) {
	router, _ := newTestRouter(t, scenarioRecords())

	rec := get(t, router, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, 3.0, health["records"])

	rec = get(t, router, "/api/docs/openapi.json")
	require.Equal(t, http.StatusOK, rec.Code)
	var spec map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&spec))
	assert.Contains(t, spec["paths"], "/api/charts/mode-line")

	rec = get(t, router, "/api/docs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swagger-ui")
}

func TestRequestIDMiddleware_ReusesHeader(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestLoggingMiddleware_RecordsRouteTemplate(t *testing.T) {
	router, collector := newTestRouter(t, nil)

	get(t, router, "/api/modes")
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.APIRequestsTotal.WithLabelValues("/api/modes", "GET", "200")))
}

func TestMetricsEndpoint_ServesCollectorRegistry(t *testing.T) {
	router, _ := newTestRouter(t, scenarioRecords())

	get(t, router, "/api/charts/season-bar")
	rec := get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_chart_renders_total{chart="season_bar",format="json"} 1`)
	assert.Contains(t, rec.Body.String(), "test_api_requests_total")
}

func TestRecoveryMiddleware(t *testing.T) {
	router := mux.NewRouter()
	router.Use(RecoveryMiddleware(logging.NewNopLogger()))
	router.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := get(t, router, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestModeLineSocket(t *testing.T) {
	router, collector := newTestRouter(t, scenarioRecords())
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/mode-line"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Replies must come back in send order.
	frames := []string{`{"mode":"Telephone"}`, `{"mode":""}`, `not json`, `{"mode":"Face-to-Face"}`}
	for _, f := range frames {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(f)))
	}

	wantPoints := []int{1, 3, 3, 2}
	for i, want := range wantPoints {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var fig presentation.LineFigure
		require.NoError(t, conn.ReadJSON(&fig))
		assert.Len(t, fig.Points, want, "frame %d", i)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.ActiveSessions))
	assert.Equal(t, 4.0, testutil.ToFloat64(collector.ChartRendersTotal.WithLabelValues("mode_line", "ws")))
}
