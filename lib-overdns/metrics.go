package overdns

import (
	"fmt"
	"net/http"
	"time"

	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the prometheus metrics of the proxy.
type Metrics struct {
	queryCount      prometheus.Counter
	skipCount       prometheus.Counter
	resolveCounters map[string]prometheus.Counter
	missCounters    map[string]prometheus.Counter
	errorCounters   map[string]prometheus.Counter
	resolveTime     prometheus.Summary
	upstreamTime    prometheus.Summary
}

func newCounter(namespace, name string, labels prometheus.Labels) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        fmt.Sprintf("%s_count", name),
		ConstLabels: labels,
	})
}

// NewMetrics is constructor of Metrics.
func NewMetrics(namespace string) *Metrics {
	resolves := map[string]prometheus.Counter{}
	misses := map[string]prometheus.Counter{}
	errors := map[string]prometheus.Counter{}

	for _, qtype := range []string{"A", "CNAME"} {
		resolves[qtype] = newCounter(namespace, "resolve", prometheus.Labels{"type": qtype, "result": "hit"})
		misses[qtype] = newCounter(namespace, "resolve", prometheus.Labels{"type": qtype, "result": "miss"})
		errors[qtype] = newCounter(namespace, "resolve_error", prometheus.Labels{"type": qtype})
	}

	return &Metrics{
		queryCount: newCounter(namespace, "received_message", prometheus.Labels{"type": "query"}),
		skipCount:  newCounter(namespace, "received_message", prometheus.Labels{"type": "another"}),

		resolveCounters: resolves,
		missCounters:    misses,
		errorCounters:   errors,

		resolveTime: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace:  namespace,
			Name:       "resolve_duration_seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
		upstreamTime: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace:  namespace,
			Name:       "upstream_duration_seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
	}
}

// HTTPHandler is getter of the metrics exporter.
func (m *Metrics) HTTPHandler() (http.Handler, error) {
	registry := prometheus.NewRegistry()

	if err := registry.Register(m); err != nil {
		return nil, err
	}

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.queryCount.Describe(ch)
	m.skipCount.Describe(ch)

	for _, c := range m.resolveCounters {
		c.Describe(ch)
	}
	for _, c := range m.missCounters {
		c.Describe(ch)
	}
	for _, c := range m.errorCounters {
		c.Describe(ch)
	}

	m.resolveTime.Describe(ch)
	m.upstreamTime.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.queryCount.Collect(ch)
	m.skipCount.Collect(ch)

	for _, c := range m.resolveCounters {
		c.Collect(ch)
	}
	for _, c := range m.missCounters {
		c.Collect(ch)
	}
	for _, c := range m.errorCounters {
		c.Collect(ch)
	}

	m.resolveTime.Collect(ch)
	m.upstreamTime.Collect(ch)
}

func (m *Metrics) makeTimer() func(*dns.Msg) {
	timer := prometheus.NewTimer(m.resolveTime)
	return func(response *dns.Msg) {
		timer.ObserveDuration()

		counters := m.resolveCounters
		if len(response.Answer) == 0 {
			counters = m.missCounters
		}

		for _, q := range response.Question {
			if counter, ok := counters[Request{q, false}.QtypeString()]; ok {
				counter.Inc()
			}
		}
	}
}

// Start is entry point of query measurement. The returned function closes
// the measurement with the response that was sent.
func (m *Metrics) Start(request *dns.Msg) func(*dns.Msg) {
	if request.Opcode != dns.OpcodeQuery {
		m.skipCount.Inc()
	} else {
		m.queryCount.Inc()
	}

	return m.makeTimer()
}

// Error counts a resolve error.
func (m *Metrics) Error(req Request, err error) {
	if counter, ok := m.errorCounters[req.QtypeString()]; ok {
		counter.Inc()
	}
}

// UpstreamTime records the round trip time of one upstream exchange.
func (m *Metrics) UpstreamTime(rtt time.Duration) {
	m.upstreamTime.Observe(rtt.Seconds())
}
