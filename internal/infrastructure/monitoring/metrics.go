package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	PaymentsTotal        *prometheus.CounterVec
	ArrearsComputedTotal *prometheus.CounterVec
	OutstandingArrears   prometheus.Gauge
	CustomersInArrears   prometheus.Gauge
	RemindersPublished   prometheus.Counter
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "waste_billing_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		PaymentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waste_billing_payments_total",
				Help: "Total number of payment attempts by outcome.",
			},
			[]string{"status"},
		),
		ArrearsComputedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waste_billing_arrears_computations_total",
				Help: "Total number of arrears computations by outcome.",
			},
			[]string{"status"},
		),
		OutstandingArrears: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "waste_billing_outstanding_arrears_idr",
				Help: "Outstanding arrears across active customers at the last reminder run.",
			},
		),
		CustomersInArrears: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "waste_billing_customers_in_arrears",
				Help: "Active customers with at least one unpaid month at the last reminder run.",
			},
		),
		RemindersPublished: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "waste_billing_arrears_reminders_total",
				Help: "Total number of arrears reminder events published.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordPayment(status string) {
	Business.PaymentsTotal.WithLabelValues(status).Inc()
}

func RecordArrearsComputation(status string) {
	Business.ArrearsComputedTotal.WithLabelValues(status).Inc()
}

func SetArrearsSnapshot(totalArrears int64, customers int) {
	Business.OutstandingArrears.Set(float64(totalArrears))
	Business.CustomersInArrears.Set(float64(customers))
}

func RecordReminderPublished() {
	Business.RemindersPublished.Inc()
}
