// Package metrics holds the Prometheus collectors of the payroll service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the payroll RPCs and data integrity.
type Metrics struct {
	RPCRequests     *prometheus.CounterVec
	RPCDuration     *prometheus.HistogramVec
	IntegrityErrors *prometheus.CounterVec
	CascadeDeletes  *prometheus.CounterVec
}

// New creates the payroll collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_rpc_requests_total",
			Help: "Total number of RPCs handled, by procedure and result code",
		}, []string{"procedure", "code"}),
		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payroll_rpc_duration_seconds",
			Help:    "Duration of RPC handling by procedure",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"procedure"}),
		IntegrityErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_pay_entry_integrity_errors_total",
			Help: "Pay entries whose stored parent reference did not match their discriminator",
		}, []string{"discriminator"}),
		CascadeDeletes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_cascade_deleted_total",
			Help: "Rows removed by cascading pay group deletes, by entity",
		}, []string{"entity"}),
	}
}

// ObserveRPC records one handled RPC. Call with time.Now() at the start.
func (m *Metrics) ObserveRPC(procedure, code string, start time.Time) {
	m.RPCRequests.WithLabelValues(procedure, code).Inc()
	m.RPCDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
}

// IncrementIntegrityError records a pay entry that failed parent resolution.
func (m *Metrics) IncrementIntegrityError(discriminator string) {
	m.IntegrityErrors.WithLabelValues(discriminator).Inc()
}

// AddCascadeDeletes records the rows removed alongside a pay group.
func (m *Metrics) AddCascadeDeletes(disbursements, payEntries int64) {
	m.CascadeDeletes.WithLabelValues("disbursement").Add(float64(disbursements))
	m.CascadeDeletes.WithLabelValues("pay_entry").Add(float64(payEntries))
}
