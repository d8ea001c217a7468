package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the registry service.
type Metrics struct {
	RecordsRegistered  prometheus.Counter
	MetadataUpdates    prometheus.Counter
	MetadataFreezes    prometheus.Counter
	Transfers          prometheus.Counter
	Attestations       prometheus.Counter
	QuorumPromotions   prometheus.Counter
	RejectedOperations *prometheus.CounterVec
}

// New creates and registers all registry metrics.
func New() *Metrics {
	return &Metrics{
		RecordsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stratoledger_records_registered_total",
			Help: "Total number of dataset records registered",
		}),
		MetadataUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stratoledger_metadata_updates_total",
			Help: "Total number of successful metadata updates",
		}),
		MetadataFreezes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stratoledger_metadata_freezes_total",
			Help: "Total number of freeze operations that flipped the flag",
		}),
		Transfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stratoledger_transfers_total",
			Help: "Total number of successful ownership transfers",
		}),
		Attestations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stratoledger_attestations_total",
			Help: "Total number of validator attestations recorded",
		}),
		QuorumPromotions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stratoledger_quorum_promotions_total",
			Help: "Total number of records promoted to verified status",
		}),
		RejectedOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stratoledger_rejected_operations_total",
			Help: "Registry operations rejected before any state change",
		}, []string{"operation", "code"}),
	}
}

func (m *Metrics) IncrementRejected(operation, code string) {
	m.RejectedOperations.WithLabelValues(operation, code).Inc()
}
