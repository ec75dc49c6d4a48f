package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder holds the service's Prometheus collectors.
type Recorder struct {
	registry    *prometheus.Registry
	generations *prometheus.CounterVec
	duration    prometheus.Histogram
	uploads     *prometheus.CounterVec
}

// New registers collectors on a fresh registry. Pass the registry to promhttp to expose it.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodpost",
			Name:      "generations_total",
			Help:      "Post generation flows by terminal state.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "foodpost",
			Name:      "generation_duration_seconds",
			Help:      "Time from submission to terminal state.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 60},
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodpost",
			Name:      "logo_uploads_total",
			Help:      "Logo uploads by result.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(r.generations, r.duration, r.uploads,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveGeneration(outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.generations.WithLabelValues(outcome).Inc()
	r.duration.Observe(seconds)
}

func (r *Recorder) ObserveUpload(ok bool) {
	if r == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	r.uploads.WithLabelValues(result).Inc()
}
