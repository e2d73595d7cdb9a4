package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"backsim/engine"
)

// PrometheusLogger 将每步指标导出为 Prometheus gauge，
// 按运行名/阶段/指标名打标签。
type PrometheusLogger struct {
	nopLifecycle
	vec *prometheus.GaugeVec
}

// NewPrometheusLogger 创建并注册到给定 registry，nil 时使用默认 registry。
func NewPrometheusLogger(reg prometheus.Registerer) (*PrometheusLogger, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "backsim",
		Name:      "metric",
		Help:      "Latest value per run/phase/metric from the step loop",
	}, []string{"run", "phase", "name"})
	if err := reg.Register(vec); err != nil {
		return nil, err
	}
	return &PrometheusLogger{vec: vec}, nil
}

// Log 实现 engine.MetricsLogger。
func (l *PrometheusLogger) Log(results map[string]float64, info engine.RunInfo) {
	for name, v := range results {
		l.vec.WithLabelValues(info.Run, info.Phase.String(), sanitize(name)).Set(v)
	}
}

// Reset 清空全部序列。
func (l *PrometheusLogger) Reset() {
	l.vec.Reset()
}

// sanitize 指标名中的点替换为下划线，符合 Prometheus 命名习惯。
func sanitize(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// StartServer 在 addr 上暴露 /metrics 端点。
func StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}
