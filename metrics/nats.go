package metrics

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"backsim/engine"
)

// NATSLogger 将每步指标以 JSON 发布到 NATS 主题，
// 供外部面板或归档消费。发布失败只记录日志，不中断步进。
type NATSLogger struct {
	nopLifecycle
	conn    *nats.Conn
	subject string
	log     *zap.Logger
}

// stepPayload 发布的消息体。
type stepPayload struct {
	Run     string             `json:"run"`
	Phase   string             `json:"phase"`
	Episode int                `json:"episode"`
	Step    int                `json:"step"`
	Time    time.Time          `json:"time"`
	Results map[string]float64 `json:"results"`
}

// NewNATSLogger 连接 NATS 并创建日志器。subject 为空时用 backsim.metrics。
func NewNATSLogger(url, subject string, log *zap.Logger) (*NATSLogger, error) {
	if subject == "" {
		subject = "backsim.metrics"
	}
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := nats.Connect(url, nats.Name("backsim-metrics"))
	if err != nil {
		return nil, err
	}
	return &NATSLogger{conn: conn, subject: subject, log: log}, nil
}

// Log 实现 engine.MetricsLogger。
func (l *NATSLogger) Log(results map[string]float64, info engine.RunInfo) {
	if len(results) == 0 {
		return
	}
	payload := stepPayload{
		Run:     info.Run,
		Phase:   info.Phase.String(),
		Episode: info.Episode,
		Step:    info.Step,
		Time:    info.Time,
		Results: results,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		l.log.Warn("marshal metrics payload failed", zap.Error(err))
		return
	}
	if err := l.conn.Publish(l.subject, raw); err != nil {
		l.log.Warn("publish metrics failed", zap.Error(err))
	}
}

// Close 冲刷并断开连接。
func (l *NATSLogger) Close() {
	if err := l.conn.Flush(); err != nil {
		l.log.Warn("flush nats failed", zap.Error(err))
	}
	l.conn.Close()
}
