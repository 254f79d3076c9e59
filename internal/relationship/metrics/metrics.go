package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics provides observability for the relationship module.
// Tracks mutations, rejected writes by reason, and graph query cost.
type Metrics struct {
	RelationshipsCreated prometheus.Counter
	RelationshipsDeleted prometheus.Counter
	RejectedWrites       *prometheus.CounterVec
	MirrorMissing        prometheus.Counter
	MutationDuration     *prometheus.HistogramVec
	GraphQueryDuration   *prometheus.HistogramVec
	GraphQueryEdges      prometheus.Histogram
}

// New registers the relationship metrics on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		RelationshipsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "lineage_relationships_created_total",
			Help: "Total number of relationships created, mirrors excluded",
		}),
		RelationshipsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "lineage_relationships_deleted_total",
			Help: "Total number of relationships deleted, mirrors excluded",
		}),
		RejectedWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_relationship_writes_rejected_total",
			Help: "Relationship writes rejected, by error code",
		}, []string{"operation", "code"}),
		MirrorMissing: factory.NewCounter(prometheus.CounterOpts{
			Name: "lineage_relationship_mirror_missing_total",
			Help: "Parent/child edges found without their mirror during update or delete",
		}),
		MutationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lineage_relationship_mutation_duration_seconds",
			Help:    "Duration of relationship mutations including the transaction",
			Buckets: latencyBuckets,
		}, []string{"operation"}),
		GraphQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lineage_graph_query_duration_seconds",
			Help:    "Duration of path and tree queries",
			Buckets: latencyBuckets,
		}, []string{"query"}),
		GraphQueryEdges: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lineage_graph_query_edges",
			Help:    "Number of edges loaded per graph query",
			Buckets: prometheus.ExponentialBuckets(16, 4, 8),
		}),
	}
}

// IncrementCreated records a successful create.
func (m *Metrics) IncrementCreated() {
	m.RelationshipsCreated.Inc()
}

// IncrementDeleted records a successful delete.
func (m *Metrics) IncrementDeleted() {
	m.RelationshipsDeleted.Inc()
}

// IncrementRejected records a write rejected with the given error code.
func (m *Metrics) IncrementRejected(operation, code string) {
	m.RejectedWrites.WithLabelValues(operation, code).Inc()
}

// IncrementMirrorMissing records a lineal edge whose mirror was absent.
func (m *Metrics) IncrementMirrorMissing() {
	m.MirrorMissing.Inc()
}

// ObserveMutation records the duration of a mutation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveMutation(operation string, start time.Time) {
	m.MutationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveGraphQuery records the duration and edge count of a graph query.
func (m *Metrics) ObserveGraphQuery(query string, edges int, start time.Time) {
	m.GraphQueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
	m.GraphQueryEdges.Observe(float64(edges))
}
