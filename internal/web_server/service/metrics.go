package service

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	recomputes *prometheus.CounterVec
	reloads    *prometheus.CounterVec
	records    prometheus.Gauge
	sessions   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "metals",
			Subsystem: "dashboard",
			Name:      "chart_recomputes_total",
			Help:      "Chart recomputes by metal and result.",
		}, []string{"metal", "result"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "metals",
			Subsystem: "dashboard",
			Name:      "store_reloads_total",
			Help:      "Record store reloads by result.",
		}, []string{"result"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "metals",
			Subsystem: "dashboard",
			Name:      "store_records",
			Help:      "Number of records in the current store.",
		}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metals",
			Subsystem: "dashboard",
			Name:      "sessions_total",
			Help:      "Dashboard sessions created.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.recomputes, m.reloads, m.records, m.sessions)
	}

	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
