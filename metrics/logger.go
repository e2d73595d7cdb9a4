package metrics

import (
	"sort"

	"go.uber.org/zap"

	"backsim/engine"
)

// Entry 内存日志器记录的一次 Log 调用。
type Entry struct {
	Results map[string]float64
	Info    engine.RunInfo
}

// MemoryLogger 把全部指标留在内存中，测试与 notebook 式分析用。
type MemoryLogger struct {
	nopLifecycle
	entries []Entry
}

// NewMemoryLogger 创建内存日志器。
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

// Log 实现 engine.MetricsLogger。
func (l *MemoryLogger) Log(results map[string]float64, info engine.RunInfo) {
	cp := make(map[string]float64, len(results))
	for k, v := range results {
		cp[k] = v
	}
	l.entries = append(l.entries, Entry{Results: cp, Info: info})
}

// Entries 返回全部记录。
func (l *MemoryLogger) Entries() []Entry { return l.entries }

// StepEntries 返回指定步的记录。
func (l *MemoryLogger) StepEntries(episode, step int) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Info.Episode == episode && e.Info.Step == step {
			out = append(out, e)
		}
	}
	return out
}

// Series 返回某个指标按记录顺序的取值序列。
func (l *MemoryLogger) Series(name string) []float64 {
	var out []float64
	for _, e := range l.entries {
		if v, ok := e.Results[name]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Names 返回出现过的全部指标名，已排序。
func (l *MemoryLogger) Names() []string {
	set := make(map[string]struct{})
	for _, e := range l.entries {
		for k := range e.Results {
			set[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for k := range set {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Reset 清空记录。
func (l *MemoryLogger) Reset() { l.entries = nil }

// Tee 将指标同时写入多个日志器。
type Tee struct {
	Loggers []engine.MetricsLogger
}

// NewTee 组合多个日志器。
func NewTee(loggers ...engine.MetricsLogger) *Tee {
	return &Tee{Loggers: loggers}
}

// Log 实现 engine.MetricsLogger。
func (t *Tee) Log(results map[string]float64, info engine.RunInfo) {
	for _, l := range t.Loggers {
		l.Log(results, info)
	}
}

// Start 实现 engine.Lifecycle。
func (t *Tee) Start(phase engine.Phase) {
	for _, l := range t.Loggers {
		l.Start(phase)
	}
}

// End 实现 engine.Lifecycle。
func (t *Tee) End(phase engine.Phase) {
	for _, l := range t.Loggers {
		l.End(phase)
	}
}

// Reset 实现 engine.Lifecycle。
func (t *Tee) Reset() {
	for _, l := range t.Loggers {
		l.Reset()
	}
}

// Metrics 实现 engine.Lifecycle。
func (t *Tee) Metrics() map[string]float64 { return nil }

// ConsoleLogger 将每步指标写入结构化日志。
type ConsoleLogger struct {
	nopLifecycle
	log *zap.Logger
}

// NewConsoleLogger 创建控制台日志器。
func NewConsoleLogger(log *zap.Logger) *ConsoleLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConsoleLogger{log: log}
}

// Log 实现 engine.MetricsLogger。
func (l *ConsoleLogger) Log(results map[string]float64, info engine.RunInfo) {
	if len(results) == 0 {
		return
	}
	fields := []zap.Field{
		zap.String("run", info.Run),
		zap.String("phase", info.Phase.String()),
		zap.Int("episode", info.Episode),
		zap.Int("step", info.Step),
		zap.Time("sim_time", info.Time),
	}
	for k, v := range results {
		fields = append(fields, zap.Float64(k, v))
	}
	l.log.Info("metrics", fields...)
}
