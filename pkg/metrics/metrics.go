package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mengumpulkan counter/histogram untuk layanan resepsionis.
type Metrics struct {
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	salesCompleted   *prometheus.CounterVec
	appointmentMoves *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optik",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "optik",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		salesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optik",
			Subsystem: "pos",
			Name:      "sales_total",
			Help:      "Sales recorded at checkout by resulting status",
		}, []string{"status"}),
		appointmentMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optik",
			Subsystem: "agenda",
			Name:      "appointment_transitions_total",
			Help:      "Appointment status transitions",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.httpRequests, m.httpLatency, m.salesCompleted, m.appointmentMoves)
	return m
}

// Middleware mencatat setiap request echo. Route memakai pola (mis. /api/pasien/:id)
// agar label tidak meledak.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			m.httpLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func (m *Metrics) ObserveSale(status string) {
	if m == nil {
		return
	}
	m.salesCompleted.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveAppointment(status string) {
	if m == nil {
		return
	}
	m.appointmentMoves.WithLabelValues(status).Inc()
}
