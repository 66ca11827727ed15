package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is what the engine reports to. NoOpMetrics satisfies it for
// tests and for deployments without a scrape endpoint.
type Recorder interface {
	RecordCommand(ctx context.Context, command string, duration time.Duration, err error)
	RecordSlotsFilled(ctx context.Context, format models.TournamentFormat, n int)
	RecordSlotConflict(ctx context.Context, format models.TournamentFormat)
	RecordSwissRound(ctx context.Context, format models.TournamentFormat)
	RecordTournamentCompleted(ctx context.Context, format models.TournamentFormat)
	RecordDBOperationError(ctx context.Context, operation string)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

type PrometheusMetrics struct {
	commandDuration *prometheus.HistogramVec
	commandErrors   *prometheus.CounterVec
	slotsFilled     *prometheus.CounterVec
	slotConflicts   *prometheus.CounterVec
	swissRounds     *prometheus.CounterVec
	completed       *prometheus.CounterVec
	dbErrors        *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bracket_engine",
			Name:      "command_duration_seconds",
			Help:      "Duration of engine commands.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		commandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket_engine",
			Name:      "command_errors_total",
			Help:      "Engine commands that returned an error.",
		}, []string{"command"}),
		slotsFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket_engine",
			Name:      "slots_filled_total",
			Help:      "Bracket slots filled by advancement or qualification.",
		}, []string{"format"}),
		slotConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket_engine",
			Name:      "slot_conflicts_total",
			Help:      "Slot writes rejected because another team holds the slot.",
		}, []string{"format"}),
		swissRounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket_engine",
			Name:      "swiss_rounds_generated_total",
			Help:      "Swiss rounds paired.",
		}, []string{"format"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket_engine",
			Name:      "tournaments_completed_total",
			Help:      "Tournaments finalized with a placement list.",
		}, []string{"format"}),
		dbErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket_engine",
			Name:      "db_operation_errors_total",
			Help:      "Storage operations that failed.",
		}, []string{"operation"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bracket_engine",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests on the ops surface.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.commandDuration, m.commandErrors, m.slotsFilled, m.slotConflicts,
		m.swissRounds, m.completed, m.dbErrors, m.httpDuration,
	)
	return m
}

func (m *PrometheusMetrics) RecordCommand(ctx context.Context, command string, duration time.Duration, err error) {
	m.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
	if err != nil {
		m.commandErrors.WithLabelValues(command).Inc()
	}
}

func (m *PrometheusMetrics) RecordSlotsFilled(ctx context.Context, format models.TournamentFormat, n int) {
	if n > 0 {
		m.slotsFilled.WithLabelValues(string(format)).Add(float64(n))
	}
}

func (m *PrometheusMetrics) RecordSlotConflict(ctx context.Context, format models.TournamentFormat) {
	m.slotConflicts.WithLabelValues(string(format)).Inc()
}

func (m *PrometheusMetrics) RecordSwissRound(ctx context.Context, format models.TournamentFormat) {
	m.swissRounds.WithLabelValues(string(format)).Inc()
}

func (m *PrometheusMetrics) RecordTournamentCompleted(ctx context.Context, format models.TournamentFormat) {
	m.completed.WithLabelValues(string(format)).Inc()
}

func (m *PrometheusMetrics) RecordDBOperationError(ctx context.Context, operation string) {
	m.dbErrors.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

type NoOpMetrics struct{}

func (NoOpMetrics) RecordCommand(context.Context, string, time.Duration, error) {}
func (NoOpMetrics) RecordSlotsFilled(context.Context, models.TournamentFormat, int) {}
func (NoOpMetrics) RecordSlotConflict(context.Context, models.TournamentFormat) {}
func (NoOpMetrics) RecordSwissRound(context.Context, models.TournamentFormat) {}
func (NoOpMetrics) RecordTournamentCompleted(context.Context, models.TournamentFormat) {}
func (NoOpMetrics) RecordDBOperationError(context.Context, string) {}
func (NoOpMetrics) RecordHTTPRequest(string, string, int, time.Duration) {}
