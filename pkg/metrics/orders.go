package metrics

import "github.com/prometheus/client_golang/prometheus"

// Order rejection reasons.
const (
	RejectInsufficientStock = "insufficient_stock"
	RejectNotFound          = "not_found"
	RejectInvalid           = "invalid"
	RejectInternal          = "internal"
)

// OrderMetrics tracks the order workflow.
type OrderMetrics struct {
	created  prometheus.Counter
	rejected *prometheus.CounterVec
	units    prometheus.Counter
	deleted  prometheus.Counter
}

// NewOrderMetrics registers the order workflow metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders persisted successfully.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Order create requests rejected, by reason.",
		}, []string{"reason"}),
		units: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_items_units_total",
			Help: "Product units taken from stock by created orders.",
		}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_deleted_total",
			Help: "Orders deleted with stock restored.",
		}),
	}
	reg.MustRegister(m.created, m.rejected, m.units, m.deleted)
	return m
}

// Created records a persisted order and the units it consumed.
func (m *OrderMetrics) Created(units int) {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
	m.units.Add(float64(units))
}

// Rejected records a failed create attempt.
func (m *OrderMetrics) Rejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *OrderMetrics) Deleted() {
	if m == nil || m.deleted == nil {
		return
	}
	m.deleted.Inc()
}
