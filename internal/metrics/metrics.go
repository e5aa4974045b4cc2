package metrics

import (
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts mutation outcomes and collection loads. A nil *Recorder
// is valid and records nothing.
type Recorder struct {
	registry  *prometheus.Registry
	mutations *prometheus.CounterVec
	loads     *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitchen",
			Name:      "mutations_total",
			Help:      "Mutations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitchen",
			Name:      "collection_loads_total",
			Help:      "Full-collection reads by collection and result.",
		}, []string{"collection", "result"}),
	}
	r.registry.MustRegister(
		r.mutations,
		r.loads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RecordMutation counts one mutation attempt.
func (r *Recorder) RecordMutation(kind, outcome string) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(kind, outcome).Inc()
}

// RecordLoad counts one full-collection read.
func (r *Recorder) RecordLoad(collection string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.loads.WithLabelValues(collection, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// MutationCount is one row of the mutation summary.
type MutationCount struct {
	Kind    string
	Outcome string
	Count   int
}

// MutationSummary reads the mutation counters back out of the registry.
func (r *Recorder) MutationSummary() ([]MutationCount, error) {
	if r == nil {
		return nil, nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}

	var out []MutationCount
	for _, mf := range families {
		if mf.GetName() != "kitchen_mutations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			c := MutationCount{Count: int(m.GetCounter().GetValue())}
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "kind":
					c.Kind = lp.GetValue()
				case "outcome":
					c.Outcome = lp.GetValue()
				}
			}
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Outcome < out[j].Outcome
	})
	return out, nil
}
