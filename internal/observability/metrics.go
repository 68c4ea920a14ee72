package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request metrics
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stt_bot_active_requests",
		Help: "Number of media requests currently in the pipeline",
	})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stt_bot_requests_total",
		Help: "Total number of media requests processed",
	}, []string{"kind", "status"}) // kind: voice, audio, video_note, document

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stt_bot_request_duration_seconds",
		Help:    "End-to-end pipeline duration in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	// Stage metrics
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stt_bot_stage_duration_seconds",
		Help:    "Duration of individual pipeline stages in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"}) // stage: fetch, convert, transcribe, dispatch

	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stt_bot_stage_failures_total",
		Help: "Total number of stage failures",
	}, []string{"stage"})

	// Progress metrics
	progressEdits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_bot_progress_edits_total",
		Help: "Total number of progress message edits sent to Telegram",
	})

	// Telegram API metrics
	telegramErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stt_bot_telegram_errors_total",
		Help: "Total number of failed Telegram API calls",
	}, []string{"operation"}) // operation: send, edit, typing, download

	// Cleanup metrics
	artifactsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_bot_artifacts_released_total",
		Help: "Total number of temporary artifacts deleted after pipeline runs",
	})
)

// RequestMetrics tracks metrics for a single pipeline run
type RequestMetrics struct {
	kind      string
	startTime time.Time
}

// NewRequestMetrics creates a metrics tracker for one media request
func NewRequestMetrics(kind string) *RequestMetrics {
	activeRequests.Inc()
	return &RequestMetrics{
		kind:      kind,
		startTime: time.Now(),
	}
}

// Done records the end of a pipeline run with its final status
func (m *RequestMetrics) Done(status string) {
	activeRequests.Dec()
	requestDuration.Observe(time.Since(m.startTime).Seconds())
	requestsTotal.WithLabelValues(m.kind, status).Inc()
}

// ObserveStage records the duration of one completed pipeline stage
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordStageFailure increments the failure counter for a stage
func RecordStageFailure(stage string) {
	stageFailures.WithLabelValues(stage).Inc()
}

// RecordProgressEdit increments the progress edit counter
func RecordProgressEdit() {
	progressEdits.Inc()
}

// RecordTelegramError increments the error counter for a Telegram operation
func RecordTelegramError(operation string) {
	telegramErrors.WithLabelValues(operation).Inc()
}

// RecordArtifactsReleased adds released artifacts to the cleanup counter
func RecordArtifactsReleased(n int) {
	artifactsReleased.Add(float64(n))
}
