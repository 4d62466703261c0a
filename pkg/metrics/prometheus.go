// Package metrics provides Prometheus metrics for the slalom controller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values used by the controller.
const (
	LayerProximity = "proximity"
	LayerFarField  = "farfield"
	LayerStraight  = "straight"

	ComponentSource    = "source"
	ComponentSink      = "sink"
	ComponentPublisher = "publisher"
)

// Manager manages all Prometheus metrics for the controller.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Control loop
	cycles            *prometheus.CounterVec
	ruleFires         *prometheus.CounterVec
	commands          *prometheus.CounterVec
	cycleDuration     prometheus.Histogram
	recoveryTurns     prometheus.Histogram
	recoveryExhausted prometheus.Counter
	clampedCommands   prometheus.Counter
	sectorDistance    *prometheus.GaugeVec
	linearVelocity    prometheus.Gauge
	angularVelocity   prometheus.Gauge

	// Transport
	scanFetchDuration prometheus.Histogram
	scansReceived     *prometheus.CounterVec
	scansMalformed    *prometheus.CounterVec
	scansDropped      *prometheus.CounterVec
	ioErrors          *prometheus.CounterVec

	// Telemetry
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	recordsPublished   prometheus.Counter
	publishDuration    prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "slalom",
		subsystem:        "controller",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.cycles = auto.NewCounterVec(
		m.counterOpts("cycles_total", "Control cycles by the layer that produced the command"),
		[]string{"layer"},
	)
	m.ruleFires = auto.NewCounterVec(
		m.counterOpts("rule_fires_total", "Avoidance rule firings by layer and rule"),
		[]string{"layer", "rule"},
	)
	m.commands = auto.NewCounterVec(
		m.counterOpts("commands_total", "Speed commands dispatched by turn direction"),
		[]string{"direction"},
	)
	m.cycleDuration = auto.NewHistogram(
		m.histogramOpts("cycle_duration_milliseconds", "Wall time of one control cycle in milliseconds", m.histogramBuckets),
	)
	m.recoveryTurns = auto.NewHistogram(
		m.histogramOpts("recovery_turns", "In-place turn commands issued per close-obstacle recovery",
			[]float64{1, 2, 5, 10, 20, 50, 100, 200, 600}),
	)
	m.recoveryExhausted = auto.NewCounter(
		m.counterOpts("recovery_exhausted_total", "Recoveries abandoned after the iteration cap"),
	)
	m.clampedCommands = auto.NewCounter(
		m.counterOpts("clamped_commands_total", "Far-field commands bounded by platform limits"),
	)
	m.sectorDistance = auto.NewGaugeVec(
		m.gaugeOpts("sector_distance_meters", "Latest reduced distance per sector"),
		[]string{"sector"},
	)
	m.linearVelocity = auto.NewGauge(
		m.gaugeOpts("linear_velocity", "Linear velocity of the last dispatched command"),
	)
	m.angularVelocity = auto.NewGauge(
		m.gaugeOpts("angular_velocity", "Signed angular velocity of the last dispatched command"),
	)

	m.scanFetchDuration = auto.NewHistogram(
		m.histogramOpts("scan_fetch_duration_milliseconds", "Time spent waiting for a scan in milliseconds", m.histogramBuckets),
	)
	m.scansReceived = auto.NewCounterVec(
		m.counterOpts("scans_received_total", "Scans decoded by transport"),
		[]string{"transport"},
	)
	m.scansMalformed = auto.NewCounterVec(
		m.counterOpts("scans_malformed_total", "Scan payloads rejected by transport"),
		[]string{"transport"},
	)
	m.scansDropped = auto.NewCounterVec(
		m.counterOpts("scans_dropped_total", "Scans discarded because a newer one arrived first"),
		[]string{"transport"},
	)
	m.ioErrors = auto.NewCounterVec(
		m.counterOpts("io_errors_total", "I/O failures by component"),
		[]string{"component"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("telemetry_queue_size", "Command records waiting for publication"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("telemetry_queue_capacity", "Telemetry queue capacity"))
	m.queueEnqueue = auto.NewCounter(m.counterOpts("telemetry_enqueued_total", "Command records enqueued"))
	m.queueDequeue = auto.NewCounter(m.counterOpts("telemetry_dequeued_total", "Command records dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("telemetry_dropped_total", "Command records dropped on a full or closed queue"))
	m.recordsPublished = auto.NewCounter(m.counterOpts("telemetry_published_total", "Command records written to the broker"))
	m.publishDuration = auto.NewHistogram(
		m.histogramOpts("telemetry_publish_duration_milliseconds", "Broker write latency in milliseconds", m.histogramBuckets),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
}

// Control loop.

// RecordCycle counts one control cycle resolved by layer.
func RecordCycle(layer string, durationMs float64) {
	globalManager.cycles.WithLabelValues(layer).Inc()
	globalManager.cycleDuration.Observe(durationMs)
}

// RecordRuleFire counts a rule firing in a layer.
func RecordRuleFire(layer, rule string) {
	globalManager.ruleFires.WithLabelValues(layer, rule).Inc()
}

// RecordCommand counts a dispatched command and remembers its velocities.
func RecordCommand(direction string, linear, angular float64) {
	globalManager.commands.WithLabelValues(direction).Inc()
	globalManager.linearVelocity.Set(linear)
	globalManager.angularVelocity.Set(angular)
}

// RecordRecoveryTurns observes how many turn commands one recovery took.
func RecordRecoveryTurns(turns int) {
	globalManager.recoveryTurns.Observe(float64(turns))
}

// RecordRecoveryExhausted counts a recovery abandoned at the iteration cap.
func RecordRecoveryExhausted() {
	globalManager.recoveryExhausted.Inc()
}

// RecordClampedCommand counts a far-field command bounded by the platform limits.
func RecordClampedCommand() {
	globalManager.clampedCommands.Inc()
}

// UpdateSectorDistance sets the latest reduced distance for a sector.
func UpdateSectorDistance(sector string, meters float64) {
	globalManager.sectorDistance.WithLabelValues(sector).Set(meters)
}

// Transport.

// RecordScanFetch observes the wait for one scan.
func RecordScanFetch(latencyMs float64) {
	globalManager.scanFetchDuration.Observe(latencyMs)
}

// RecordScanReceived counts a decoded scan.
func RecordScanReceived(transport string) {
	globalManager.scansReceived.WithLabelValues(transport).Inc()
}

// RecordScanMalformed counts a rejected scan payload.
func RecordScanMalformed(transport string) {
	globalManager.scansMalformed.WithLabelValues(transport).Inc()
}

// RecordScanDropped counts a stale scan replaced before it was read.
func RecordScanDropped(transport string) {
	globalManager.scansDropped.WithLabelValues(transport).Inc()
}

// RecordIOError counts an I/O failure in a component.
func RecordIOError(component string) {
	globalManager.ioErrors.WithLabelValues(component).Inc()
}

// Telemetry.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the dropped record counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordPublished counts a record written to the broker.
func RecordPublished(latencyMs float64) {
	globalManager.recordsPublished.Inc()
	globalManager.publishDuration.Observe(latencyMs)
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
