package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 记录指标
	RecordsCreated prometheus.Counter
	RecordsDeleted prometheus.Counter
	RecordsActive  prometheus.Gauge

	// 错误指标
	StorageErrorsTotal *prometheus.CounterVec
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordvault_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recordvault_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		RecordsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "recordvault_records_created_total",
				Help: "Total number of records created",
			},
		),

		RecordsDeleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "recordvault_records_deleted_total",
				Help: "Total number of records deleted",
			},
		),

		RecordsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "recordvault_records_active",
				Help: "Number of records currently persisted",
			},
		),

		StorageErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordvault_storage_errors_total",
				Help: "Total number of storage layer errors",
			},
			[]string{"operation"},
		),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStorageError 记录一次存储层错误
func (m *Metrics) RecordStorageError(operation string) {
	m.StorageErrorsTotal.WithLabelValues(operation).Inc()
}

// HTTPHandler 返回 Prometheus 指标端点处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
