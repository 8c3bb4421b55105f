package health

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the scheduler's operational counters. All fields are
// registered on the registry passed to NewMetrics.
type Metrics struct {
	StagesDelivered  *prometheus.CounterVec
	DeliveryFailures prometheus.Counter
	StagesSkipped    prometheus.Counter
	CyclesRetired    prometheus.Counter
	TogglesSeen      prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StagesDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turfbot",
			Name:      "stages_delivered_total",
			Help:      "Reminder stages delivered, by event name.",
		}, []string{"event"}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turfbot",
			Name:      "delivery_failures_total",
			Help:      "Stage deliveries that returned an error.",
		}),
		StagesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turfbot",
			Name:      "stages_skipped_total",
			Help:      "Stage firings skipped because no destination was configured.",
		}),
		CyclesRetired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turfbot",
			Name:      "cycles_retired_total",
			Help:      "Confirmation cycles retired after cleanup.",
		}),
		TogglesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turfbot",
			Name:      "confirmation_toggles_total",
			Help:      "Confirmation button taps processed.",
		}),
	}
	reg.MustRegister(m.StagesDelivered, m.DeliveryFailures, m.StagesSkipped, m.CyclesRetired, m.TogglesSeen)
	return m
}

// RegisterOpenCycles exposes the live cycle count as a gauge.
func RegisterOpenCycles(reg prometheus.Registerer, open func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "turfbot",
		Name:      "cycles_open",
		Help:      "Confirmation cycles currently held in memory.",
	}, func() float64 { return float64(open()) }))
}
