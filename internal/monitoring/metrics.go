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
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// 投递指标
	EmailsSentTotal     prometheus.Counter
	EmailsFailedTotal   prometheus.Counter
	SendDuration        prometheus.Histogram
	CampaignRunsTotal   prometheus.Counter
	CampaignRunsActive  prometheus.Gauge
	CampaignRoundsTotal prometheus.Counter

	// 资源指标
	SendersActive       prometheus.Gauge
	RecipientsPending   prometheus.Gauge
	DatabaseConnections prometheus.Gauge

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailblast_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailblast_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailblast_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),

		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailblast_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),

		EmailsSentTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailblast_emails_sent_total",
				Help: "Total number of emails delivered successfully",
			},
		),

		EmailsFailedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailblast_emails_failed_total",
				Help: "Total number of delivery failures",
			},
		),

		SendDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mailblast_send_duration_seconds",
				Help:    "SMTP delivery duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		CampaignRunsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailblast_campaign_runs_total",
				Help: "Total number of campaign runs started",
			},
		),

		CampaignRunsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "mailblast_campaign_runs_active",
				Help: "Number of campaign runs currently executing",
			},
		),

		CampaignRoundsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailblast_campaign_rounds_total",
				Help: "Total number of dispatch rounds executed",
			},
		),

		SendersActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "mailblast_senders_active",
				Help: "Number of active sender accounts",
			},
		),

		RecipientsPending: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "mailblast_recipients_pending",
				Help: "Number of recipients awaiting delivery",
			},
		),

		DatabaseConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "mailblast_database_connections",
				Help: "Number of open database connections",
			},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailblast_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailblast_panics_total",
				Help: "Total number of panics",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration, requestSize, responseSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.HTTPRequestSize.WithLabelValues(method, endpoint).Observe(float64(requestSize))
	m.HTTPResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
}

// RecordEmailSent 记录投递成功
func (m *Metrics) RecordEmailSent(duration time.Duration) {
	m.EmailsSentTotal.Inc()
	m.SendDuration.Observe(duration.Seconds())
}

// RecordEmailFailed 记录投递失败
func (m *Metrics) RecordEmailFailed(duration time.Duration) {
	m.EmailsFailedTotal.Inc()
	m.SendDuration.Observe(duration.Seconds())
}

// RecordCampaignStarted 记录活动启动
func (m *Metrics) RecordCampaignStarted() {
	m.CampaignRunsTotal.Inc()
	m.CampaignRunsActive.Inc()
}

// RecordCampaignFinished 记录活动结束
func (m *Metrics) RecordCampaignFinished() {
	m.CampaignRunsActive.Dec()
}

// RecordRound 记录一轮调度
func (m *Metrics) RecordRound() {
	m.CampaignRoundsTotal.Inc()
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// UpdateSendersActive 更新活跃发信账号数
func (m *Metrics) UpdateSendersActive(count int) {
	m.SendersActive.Set(float64(count))
}

// UpdateRecipientsPending 更新待发收件人数
func (m *Metrics) UpdateRecipientsPending(count int) {
	m.RecipientsPending.Set(float64(count))
}

// UpdateDatabaseConnections 更新数据库连接数
func (m *Metrics) UpdateDatabaseConnections(count int) {
	m.DatabaseConnections.Set(float64(count))
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
