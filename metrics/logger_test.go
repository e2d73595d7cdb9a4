package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"backsim/engine"
)

func info(episode, step int) engine.RunInfo {
	return engine.RunInfo{Run: "run-test", Episode: episode, Step: step, Phase: engine.PhaseMain}
}

func TestMemoryLogger(t *testing.T) {
	l := NewMemoryLogger()
	l.Log(map[string]float64{"a": 1, "b": 2}, info(1, 1))
	l.Log(map[string]float64{"a": 3}, info(1, 2))
	l.Log(map[string]float64{"b": 4}, info(2, 1))

	if got := len(l.Entries()); got != 3 {
		t.Fatalf("entries = %d", got)
	}
	if got := len(l.StepEntries(1, 2)); got != 1 {
		t.Fatalf("step entries = %d", got)
	}

	series := l.Series("a")
	if len(series) != 2 || series[0] != 1 || series[1] != 3 {
		t.Fatalf("series a = %v", series)
	}

	names := l.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v", names)
	}

	// 写入后修改原 map 不得影响已记录内容
	results := map[string]float64{"c": 5}
	l.Log(results, info(2, 2))
	results["c"] = 99
	if got := l.Series("c")[0]; got != 5 {
		t.Fatalf("entry not isolated from caller map: %v", got)
	}

	l.Reset()
	if len(l.Entries()) != 0 {
		t.Fatalf("reset left entries behind")
	}
}

func TestTeeFansOut(t *testing.T) {
	a, b := NewMemoryLogger(), NewMemoryLogger()
	tee := NewTee(a, b)

	tee.Log(map[string]float64{"x": 1}, info(1, 1))
	if len(a.Entries()) != 1 || len(b.Entries()) != 1 {
		t.Fatalf("log not fanned out: %d/%d", len(a.Entries()), len(b.Entries()))
	}

	tee.Reset()
	if len(a.Entries()) != 0 || len(b.Entries()) != 0 {
		t.Fatalf("reset not fanned out")
	}
}

func TestConsoleLoggerFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewConsoleLogger(zap.New(core))

	l.Log(map[string]float64{"returns.total": 0.1}, info(1, 3))
	l.Log(nil, info(1, 4)) // 空结果不输出

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["run"] != "run-test" {
		t.Fatalf("run field = %v", fields["run"])
	}
	if fields["returns.total"] != 0.1 {
		t.Fatalf("metric field = %v", fields["returns.total"])
	}
}

func TestPrometheusLoggerExportsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	l, err := NewPrometheusLogger(reg)
	if err != nil {
		t.Fatal(err)
	}

	l.Log(map[string]float64{"returns.total": 0.25}, info(1, 1))

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) != 1 || families[0].GetName() != "backsim_metric" {
		t.Fatalf("unexpected families: %v", families)
	}
	metric := families[0].GetMetric()[0]
	labels := make(map[string]string)
	for _, lp := range metric.GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	// 指标名中的点导出前转为下划线
	if labels["name"] != "returns_total" || labels["run"] != "run-test" {
		t.Fatalf("labels = %v", labels)
	}
	if got := metric.GetGauge().GetValue(); got != 0.25 {
		t.Fatalf("gauge = %v", got)
	}

	l.Reset()
	families, _ = reg.Gather()
	if len(families) != 0 {
		t.Fatalf("reset left series behind")
	}

	// 同一 registry 重复注册必须失败
	if _, err := NewPrometheusLogger(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
