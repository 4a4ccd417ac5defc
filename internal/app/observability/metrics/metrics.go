package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	LocationUpdatesTotal   metric.Int64Counter
	MirrorWritesTotal      metric.Int64Counter
	MirrorFailuresTotal    metric.Int64Counter
	ProximityQueryDuration metric.Float64Histogram
	HeatmapPointsReturned  metric.Int64Histogram
	AuthRequestsTotal      metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments once, using the
// globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("vicinity-api")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.LocationUpdatesTotal, err = meter.Int64Counter(
			"location_updates_total",
			metric.WithDescription("Total number of primary-store location updates committed"),
			metric.WithUnit("{update}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create location_updates_total: %v", err)
		}

		m.MirrorWritesTotal, err = meter.Int64Counter(
			"mirror_writes_total",
			metric.WithDescription("Total number of secondary geo-point mirror writes attempted"),
			metric.WithUnit("{write}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create mirror_writes_total: %v", err)
		}

		m.MirrorFailuresTotal, err = meter.Int64Counter(
			"mirror_failures_total",
			metric.WithDescription("Mirror writes that failed after a committed primary update"),
			metric.WithUnit("{failure}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create mirror_failures_total: %v", err)
		}

		m.ProximityQueryDuration, err = meter.Float64Histogram(
			"proximity_query_duration_seconds",
			metric.WithDescription("Duration of proximity queries including ranking"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create proximity_query_duration_seconds: %v", err)
		}

		m.HeatmapPointsReturned, err = meter.Int64Histogram(
			"heatmap_points_returned",
			metric.WithDescription("Number of points returned per heatmap build"),
			metric.WithUnit("{point}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create heatmap_points_returned: %v", err)
		}

		m.AuthRequestsTotal, err = meter.Int64Counter(
			"auth_requests_total",
			metric.WithDescription("Total number of authentication requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_requests_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global instruments, or nil when InitAppMetrics has not
// run (unit tests). Callers must nil-check.
func Get() *AppMetrics {
	return appMetrics
}
