package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts the business outcomes of the checkout pipeline.
type CheckoutMetrics struct {
	OrdersCreated  *prometheus.CounterVec // kind: paid|free
	Captures       *prometheus.CounterVec // outcome: completed|replayed|incomplete|error
	CaptureSeconds prometheus.Histogram
	LinksIssued    prometheus.Counter
	MailFailures   prometheus.Counter
}

// NewCheckoutMetrics registers the checkout collectors on reg. A nil reg
// falls back to the default registry; tests pass their own to avoid
// duplicate registration across cases.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &CheckoutMetrics{
		OrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "orders_created_total",
			Help:      "Orders created, by kind (paid or free).",
		}, []string{"kind"}),
		Captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "captures_total",
			Help:      "Capture attempts, by outcome.",
		}, []string{"outcome"}),
		CaptureSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "capture_duration_seconds",
			Help:      "End to end capture latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LinksIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "fulfillment",
			Name:      "download_links_issued_total",
			Help:      "Signed download links handed to buyers.",
		}),
		MailFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "notification",
			Name:      "mail_failures_total",
			Help:      "Order confirmation emails that could not be sent.",
		}),
	}

	reg.MustRegister(m.OrdersCreated, m.Captures, m.CaptureSeconds, m.LinksIssued, m.MailFailures)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}
