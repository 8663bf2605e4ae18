package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricCatalogFreshness = "catalog.data_age_seconds"
	MetricFixLatency       = "realtime.courier_fix_latency"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricQuotesIssued = "business.quotes_issued"
	MetricDispatches   = "business.couriers_dispatched"
)
