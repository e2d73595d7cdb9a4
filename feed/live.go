package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"backsim/asset"
)

// tradeMessage 成交流消息的最小结构（combined stream 格式）。
// 行情源只做字段映射，不承担协议解析之外的职责。
type tradeMessage struct {
	Data struct {
		Symbol   string `json:"s"`
		Price    string `json:"p"`
		Quantity string `json:"q"`
		TradeTs  int64  `json:"T"`
	} `json:"data"`
}

// LiveFeed 实时成交流行情源：每个 symbol 一条订阅，推送 TradePrice 事件。
// 覆盖区间为无限区间，实际截止由消费端时间窗口决定。
type LiveFeed struct {
	Endpoint string
	Dialer   *websocket.Dialer

	log     *zap.Logger
	assets  map[string]asset.Asset
	streams []string
	subs    []subscription
}

type subscription struct {
	stream string
	conn   *websocket.Conn
}

// NewLiveFeed 创建实时行情源。endpoint 形如 wss://host。
func NewLiveFeed(endpoint string, log *zap.Logger) *LiveFeed {
	if log == nil {
		log = zap.NewNop()
	}
	return &LiveFeed{
		Endpoint: endpoint,
		Dialer:   websocket.DefaultDialer,
		log:      log,
		assets:   make(map[string]asset.Asset),
	}
}

// Subscribe 登记一个资产的成交流订阅。
func (f *LiveFeed) Subscribe(a asset.Asset) error {
	if a.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	key := strings.ToUpper(a.Symbol)
	if _, ok := f.assets[key]; ok {
		return fmt.Errorf("already subscribed: %s", key)
	}
	f.assets[key] = a
	f.streams = append(f.streams, strings.ToLower(a.Symbol)+"@trade")
	return nil
}

// Timeframe 实时源覆盖任意时间。
func (f *LiveFeed) Timeframe() Timeframe {
	return InfiniteTimeframe()
}

// Play 连接 combined stream 并持续推送，直到 ctx 取消或连接中断。
func (f *LiveFeed) Play(ctx context.Context, ch *EventChannel) error {
	if len(f.streams) == 0 {
		return fmt.Errorf("no streams subscribed")
	}
	u := url.URL{
		Scheme: "wss",
		Host:   strings.TrimPrefix(f.Endpoint, "wss://"),
		Path:   "/stream",
	}
	q := u.Query()
	q.Set("streams", strings.Join(f.streams, "/"))
	u.RawQuery = q.Encode()

	conn, _, err := f.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	f.subs = append(f.subs, subscription{stream: strings.Join(f.streams, "/"), conn: conn})
	defer f.closeSubscriptions()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read trade stream: %w", err)
		}
		ev, ok := f.parse(raw)
		if !ok {
			continue
		}
		if err := ch.Send(ctx, ev); err != nil {
			if err == ErrChannelClosed {
				return nil
			}
			return err
		}
	}
}

// Close 释放全部订阅。单个订阅关闭失败只记录日志，不中断后续清理。
func (f *LiveFeed) Close() {
	f.closeSubscriptions()
}

func (f *LiveFeed) closeSubscriptions() {
	for _, s := range f.subs {
		if s.conn == nil {
			continue
		}
		if err := s.conn.Close(); err != nil {
			f.log.Warn("close subscription failed",
				zap.String("stream", s.stream), zap.Error(err))
		}
	}
	f.subs = f.subs[:0]
}

func (f *LiveFeed) parse(raw []byte) (Event, bool) {
	var msg tradeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		f.log.Debug("skip unparsable message", zap.Error(err))
		return Event{}, false
	}
	a, ok := f.assets[strings.ToUpper(msg.Data.Symbol)]
	if !ok {
		return Event{}, false
	}
	price, qty := parseFloat(msg.Data.Price), parseFloat(msg.Data.Quantity)
	if price <= 0 {
		return Event{}, false
	}
	ts := time.UnixMilli(msg.Data.TradeTs).UTC()
	return NewEvent(ts, TradePrice{Ref: a, Value: price, Volume: qty}), true
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
