package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "waypoint"

// Metrics records navigation activity.
type Metrics struct {
	gatherer prometheus.Gatherer

	stepsEntered    *prometheus.CounterVec
	promptsCaptured *prometheus.CounterVec
	sessionsEnded   *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
	stepDwell       *prometheus.HistogramVec
	sessionDuration *prometheus.HistogramVec

	mu      sync.Mutex
	entered map[string]time.Time // session ID -> current step entry
	started map[string]time.Time // session ID -> first step entry
}

// NewMetrics creates and registers the collectors on reg.
// Pass prometheus.DefaultRegisterer to expose them process-wide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepsEntered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_entered_total",
			Help:      "Total number of steps entered",
		}, []string{"document"}),
		promptsCaptured: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompts_captured_total",
			Help:      "Total number of prompt answers written into documents",
		}, []string{"document", "variable"}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Total number of sessions closed, by final status",
		}, []string{"status"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions seen by this process and not yet closed",
		}),
		stepDwell: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_dwell_seconds",
			Help:      "Time spent on a step before leaving it",
			Buckets:   []float64{1, 5, 15, 30, 60, 300, 900, 3600},
		}, []string{"document"}),
		sessionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Time from the first step to the end of a session",
			Buckets:   []float64{10, 60, 300, 900, 3600, 4 * 3600, 24 * 3600},
		}, []string{"status"}),
		entered: make(map[string]time.Time),
		started: make(map[string]time.Time),
	}
	reg.MustRegister(m.stepsEntered, m.promptsCaptured, m.sessionsEnded,
		m.sessionsActive, m.stepDwell, m.sessionDuration)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle callbacks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter:     m.onStepEnter,
		OnStepLeave:     m.onStepLeave,
		OnPromptCapture: m.onPromptCapture,
		OnSessionEnd:    m.onSessionEnd,
	}
}

func (m *Metrics) onStepEnter(_ context.Context, e *domain.StepEvent) {
	m.stepsEntered.WithLabelValues(e.DocumentID).Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entered[e.SessionID] = e.Timestamp
	if _, ok := m.started[e.SessionID]; !ok {
		m.started[e.SessionID] = e.Timestamp
		m.sessionsActive.Inc()
	}
}

func (m *Metrics) onStepLeave(_ context.Context, e *domain.StepEvent) {
	m.mu.Lock()
	at, ok := m.entered[e.SessionID]
	delete(m.entered, e.SessionID)
	m.mu.Unlock()

	if ok {
		m.stepDwell.WithLabelValues(e.DocumentID).Observe(e.Timestamp.Sub(at).Seconds())
	}
}

func (m *Metrics) onPromptCapture(_ context.Context, e *domain.PromptEvent) {
	m.promptsCaptured.WithLabelValues(e.DocumentID, e.Prompt.Name).Inc()
}

func (m *Metrics) onSessionEnd(_ context.Context, e *domain.SessionEvent) {
	status := string(e.Status)
	m.sessionsEnded.WithLabelValues(status).Inc()

	m.mu.Lock()
	start, ok := m.started[e.SessionID]
	delete(m.started, e.SessionID)
	delete(m.entered, e.SessionID)
	m.mu.Unlock()

	if ok {
		m.sessionsActive.Dec()
		m.sessionDuration.WithLabelValues(status).Observe(e.Timestamp.Sub(start).Seconds())
	}
}
