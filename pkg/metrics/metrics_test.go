package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("nhs_dashboard_test", prometheus.NewRegistry())

	c.RecordAPIRequest("/api/summary", "GET", "200")
	c.RecordAPIRequest("/api/summary", "GET", "200")
	c.RecordFilterEvent("http", "match")
	c.RecordLoadError("parse_error")
	c.RecordChartRender("season_bar", "svg")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/api/summary", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FilterEventsTotal.WithLabelValues("http", "match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DatasetLoadErrors.WithLabelValues("parse_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ChartRendersTotal.WithLabelValues("season_bar", "svg")))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	// Two collectors with the same namespace must not collide on private registries.
	assert.NotPanics(t, func() {
		NewCollector("dup", prometheus.NewRegistry())
		NewCollector("dup", prometheus.NewRegistry())
	})
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := NewCollector("timer_test", prometheus.NewRegistry())

	timer := c.NewTimer(c.AggregationDuration)
	time.Sleep(time.Millisecond)
	d := timer.ObserveDuration()

	assert.GreaterOrEqual(t, d, time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(c.AggregationDuration))
}
