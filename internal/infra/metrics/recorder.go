package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docketvoice/internal/domain"
)

const namespace = "docketvoice"

// Recorder counts utterances and dispatched commands on its own registry.
type Recorder struct {
	registry   *prometheus.Registry
	utterances *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	commands   *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		utterances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Utterances received, by kind (audio or text).",
		}, []string{"kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "utterance_latency_seconds",
			Help:      "Time from input to recognized utterance, including transcription.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Voice commands dispatched, by command and outcome.",
		}, []string{"command", "outcome"}),
	}

	r.registry.MustRegister(
		r.utterances,
		r.latency,
		r.commands,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveUtterance(kind string, latency time.Duration) {
	r.utterances.WithLabelValues(kind).Inc()
	r.latency.WithLabelValues(kind).Observe(latency.Seconds())
}

func (r *Recorder) ObserveCommand(cmd domain.Command, outcome string) {
	r.commands.WithLabelValues(string(cmd), outcome).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
