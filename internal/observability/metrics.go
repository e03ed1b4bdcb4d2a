package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the domain collectors. Label values are bounded:
//
//   - state:   ready|partial|degraded|failed
//   - outcome: ok|no_results|too_short (queries), ok|error (fetches)
//   - source:  cache|network
type Metrics struct {
	IndexEntries prometheus.Gauge
	Builds       *prometheus.CounterVec
	Queries      *prometheus.CounterVec
	Fetches      *prometheus.CounterVec
	Relocations  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered. Collectors already registered by an earlier call
// are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		IndexEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catecismo_index_entries",
			Help: "Entries in the current index.",
		}),
		Builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catecismo_index_builds_total",
			Help: "Index builds by end state.",
		}, []string{"state"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catecismo_queries_total",
			Help: "Search queries by outcome.",
		}, []string{"outcome"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catecismo_document_fetches_total",
			Help: "Document loads for selection by source and outcome.",
		}, []string{"source", "outcome"}),
		Relocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catecismo_relocations_total",
			Help: "Paragraph relocations by outcome.",
		}, []string{"outcome"}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	m.IndexEntries = register(reg, m.IndexEntries, &err)
	m.Builds = register(reg, m.Builds, &err)
	m.Queries = register(reg, m.Queries, &err)
	m.Fetches = register(reg, m.Fetches, &err)
	m.Relocations = register(reg, m.Relocations, &err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C, errp *error) C {
	if *errp != nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		*errp = err
	}
	return c
}

// ObserveBuild records a finished build.
func (m *Metrics) ObserveBuild(state string, entries int) {
	if m == nil {
		return
	}
	m.Builds.WithLabelValues(state).Inc()
	m.IndexEntries.Set(float64(entries))
}

// ObserveQuery records a query outcome.
func (m *Metrics) ObserveQuery(outcome string) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(outcome).Inc()
}

// ObserveFetch records a selection-time document load.
func (m *Metrics) ObserveFetch(source string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Fetches.WithLabelValues(source, outcome).Inc()
}

// ObserveRelocation records whether a selected paragraph was found.
func (m *Metrics) ObserveRelocation(found bool) {
	if m == nil {
		return
	}
	outcome := "found"
	if !found {
		outcome = "not_found"
	}
	m.Relocations.WithLabelValues(outcome).Inc()
}
