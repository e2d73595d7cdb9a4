package feed

import (
	"context"
	"sort"
	"time"

	"backsim/asset"
)

// Feed 行情源。Play 将事件按时间非递减顺序推入通道，推送完毕后返回；
// 不负责关闭通道，关闭由消费端（运行循环）统一处理。
type Feed interface {
	Timeframe() Timeframe
	Play(ctx context.Context, ch *EventChannel) error
}

// HistoricFeed 内存中的历史行情，事件按时间排序。
type HistoricFeed struct {
	events []Event
}

// NewHistoricFeed 创建历史行情源，输入事件会先按时间排序。
func NewHistoricFeed(events ...Event) *HistoricFeed {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	return &HistoricFeed{events: sorted}
}

// Add 追加事件并保持时间序。
func (f *HistoricFeed) Add(ev Event) {
	f.events = append(f.events, ev)
	sort.SliceStable(f.events, func(i, j int) bool { return f.events[i].Time.Before(f.events[j].Time) })
}

// Timeframe 返回数据覆盖区间；无数据时返回空区间。
func (f *HistoricFeed) Timeframe() Timeframe {
	if len(f.events) == 0 {
		return Timeframe{}
	}
	return Timeframe{Start: f.events[0].Time, End: f.events[len(f.events)-1].Time}
}

// Play 顺序推送全部事件。区间过滤由通道完成。
func (f *HistoricFeed) Play(ctx context.Context, ch *EventChannel) error {
	for _, ev := range f.events {
		if err := ch.Send(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// LastPrice 返回某资产的最后观测价，用于估值类指标。
func (f *HistoricFeed) LastPrice(a asset.Asset) (float64, bool) {
	for i := len(f.events) - 1; i >= 0; i-- {
		if pa, ok := f.events[i].PriceOf(a); ok {
			return pa.Price(), true
		}
	}
	return 0, false
}

// singleAssetEvents 构造单资产的成交事件序列，测试与示例共用。
func singleAssetEvents(a asset.Asset, start time.Time, step time.Duration, prices []float64) []Event {
	events := make([]Event, 0, len(prices))
	for i, p := range prices {
		events = append(events, NewEvent(start.Add(time.Duration(i)*step), TradePrice{Ref: a, Value: p, Volume: 1}))
	}
	return events
}

// NewPriceSeriesFeed 由价格序列快速构造历史行情源。
func NewPriceSeriesFeed(a asset.Asset, start time.Time, step time.Duration, prices ...float64) *HistoricFeed {
	return NewHistoricFeed(singleAssetEvents(a, start, step, prices)...)
}
