// Package metrics exposes room counters on a dedicated Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "duet"

// Metrics is nil-safe: every recorder method on a nil *Metrics is a no-op.
type Metrics struct {
	reg              *prometheus.Registry
	events           *prometheus.CounterVec
	evictions        *prometheus.CounterVec
	assistantReplies *prometheus.CounterVec
	pending          prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Outbound room events handed to the gateway.",
		}, []string{"event"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Occupants removed from a seat, by reason.",
		}, []string{"reason"}),
		assistantReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_replies_total",
			Help:      "Assistant replies by result.",
		}, []string{"result"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_requests",
			Help:      "Guests waiting for approval.",
		}),
	}
	m.reg.MustRegister(
		m.events,
		m.evictions,
		m.assistantReplies,
		m.pending,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// WatchConnections reports fn() as the open connection gauge at scrape time.
func (m *Metrics) WatchConnections(fn func() int) {
	if m == nil {
		return
	}
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections",
		Help:      "Open signal connections.",
	}, func() float64 { return float64(fn()) }))
}

// Observe counts delivered events. Kicks are also counted as evictions.
func (m *Metrics) Observe(ins []core.Instruction) {
	if m == nil {
		return
	}
	for _, in := range ins {
		m.events.WithLabelValues(string(in.Event)).Inc()
		if p, ok := in.Payload.(domain.KickedPayload); ok {
			m.evictions.WithLabelValues(p.Reason).Inc()
		}
	}
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

func (m *Metrics) AssistantReply(result string) {
	if m == nil {
		return
	}
	m.assistantReplies.WithLabelValues(result).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
