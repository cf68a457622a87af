// Package observability 入库引擎的 Prometheus 指标
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "fightsync"

// IngestMetrics 入库运行指标。所有方法对 nil 接收者安全，测试中可直接传 nil
type IngestMetrics struct {
	// RunsTotal 运行次数，label: status (success/failure)
	RunsTotal *prometheus.CounterVec
	// RunDuration 单次运行耗时（含台账写入）
	RunDuration *prometheus.HistogramVec
	// RecordsWritten 已提交的写入，label: kind (fighter/event/fight), action (created/updated/cancelled)
	RecordsWritten *prometheus.CounterVec
	// FightsSkipped 引用无法解析而跳过的对阵
	FightsSkipped prometheus.Counter
	// LedgerErrors 台账写入失败次数
	LedgerErrors prometheus.Counter
	// LastSuccess 最近一次成功运行的 unix 时间
	LastSuccess prometheus.Gauge
}

// NewIngestMetrics 注册到给定 Registerer；reg 为 nil 时使用默认注册表
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &IngestMetrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Ingestion runs by outcome",
		}, []string{"status"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Ingestion run duration",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"status"}),
		RecordsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "records_written_total",
			Help:      "Committed record writes by kind and action",
		}, []string{"kind", "action"}),
		FightsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "fights_skipped_total",
			Help:      "Fights skipped because a reference could not be resolved",
		}),
		LedgerErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "ledger_errors_total",
			Help:      "Run ledger rows that could not be written",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}
}

// ObserveRun 记录一次运行的结果与耗时
func (m *IngestMetrics) ObserveRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.WithLabelValues(status).Observe(d.Seconds())
	if status == "success" {
		m.LastSuccess.SetToCurrentTime()
	}
}

// ObserveWrites 事务提交后按实体类型累加写入数
func (m *IngestMetrics) ObserveWrites(kind string, created, updated int) {
	if m == nil {
		return
	}
	m.RecordsWritten.WithLabelValues(kind, "created").Add(float64(created))
	m.RecordsWritten.WithLabelValues(kind, "updated").Add(float64(updated))
}

func (m *IngestMetrics) ObserveCancelled(n int) {
	if m == nil {
		return
	}
	m.RecordsWritten.WithLabelValues("fight", "cancelled").Add(float64(n))
}

func (m *IngestMetrics) ObserveSkipped(n int) {
	if m == nil {
		return
	}
	m.FightsSkipped.Add(float64(n))
}

func (m *IngestMetrics) ObserveLedgerError() {
	if m == nil {
		return
	}
	m.LedgerErrors.Inc()
}

// Handler 返回 /metrics 的 HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
