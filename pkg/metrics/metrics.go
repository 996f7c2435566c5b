package metrics

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bi_api_requests_total",
			Help: "Number of API requests",
		},
		[]string{"tenant", "method", "path", "status"},
	)
	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bi_api_latency_seconds",
			Help:    "API latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	Widgets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bi_widgets_total",
			Help: "Number of widgets by type",
		},
		[]string{"type"},
	)
	QueryExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bi_query_executions_total",
			Help: "Ad-hoc query executions by outcome",
		},
		[]string{"kind", "status"},
	)
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bi_query_duration_seconds",
			Help:    "Ad-hoc query execution time",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	LayoutSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bi_layout_saves_total",
			Help: "Dashboard layout save attempts by outcome",
		},
		[]string{"status"},
	)
	AlertTriggers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bi_alert_triggers_total",
			Help: "DB QA alert triggers by severity",
		},
		[]string{"severity"},
	)
	AlertNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bi_alert_notifications_total",
			Help: "Alert notification attempts by channel and outcome",
		},
		[]string{"channel", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		APIRequests,
		APILatency,
		Widgets,
		QueryExecutions,
		QueryDuration,
		LayoutSaves,
		AlertTriggers,
		AlertNotifications,
	)
}

// WidgetCounter is implemented by repositories able to count widgets per type.
type WidgetCounter interface {
	CountByType(ctx context.Context) (map[string]int, error)
}

// StartWidgetGauge starts a background job that refreshes the widget gauge
// every 30 seconds.
func StartWidgetGauge(ctx context.Context, repo WidgetCounter) {
	if repo == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				counts, err := repo.CountByType(ctx)
				if err != nil {
					log.Printf("Error in CountByType: %v", err)
					continue
				}
				for typ, n := range counts {
					Widgets.WithLabelValues(typ).Set(float64(n))
				}
			}
		}
	}()
}
