package feed

import (
	"context"
	"math/rand"
	"time"

	"backsim/asset"
)

// RandomWalkFeed 按几何随机游走生成柱状行情，零外部数据即可驱动一次回测。
// 固定 seed 时序列可复现。
type RandomWalkFeed struct {
	tf         Timeframe
	assets     []asset.Asset
	interval   time.Duration
	startPrice float64
	volatility float64
	seed       int64
}

// NewRandomWalkFeed 创建随机游走行情源。
// interval 默认 1 分钟，startPrice 默认 100，volatility 默认 0.01。
func NewRandomWalkFeed(tf Timeframe, interval time.Duration, assets ...asset.Asset) *RandomWalkFeed {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RandomWalkFeed{
		tf:         tf,
		assets:     assets,
		interval:   interval,
		startPrice: 100.0,
		volatility: 0.01,
		seed:       time.Now().UnixNano(),
	}
}

// WithSeed 固定随机种子，回测复现用。
func (f *RandomWalkFeed) WithSeed(seed int64) *RandomWalkFeed {
	f.seed = seed
	return f
}

// WithPrice 设置起始价与波动率。
func (f *RandomWalkFeed) WithPrice(start, volatility float64) *RandomWalkFeed {
	if start > 0 {
		f.startPrice = start
	}
	if volatility > 0 {
		f.volatility = volatility
	}
	return f
}

// Timeframe 返回生成区间。
func (f *RandomWalkFeed) Timeframe() Timeframe {
	return f.tf
}

// Play 逐根生成柱并推送，直到覆盖完整区间。
func (f *RandomWalkFeed) Play(ctx context.Context, ch *EventChannel) error {
	rng := rand.New(rand.NewSource(f.seed))
	prices := make(map[asset.Asset]float64, len(f.assets))
	for _, a := range f.assets {
		prices[a] = f.startPrice
	}

	for t := f.tf.Start; !t.After(f.tf.End); t = t.Add(f.interval) {
		actions := make([]PriceAction, 0, len(f.assets))
		for _, a := range f.assets {
			open := prices[a]
			drift := 1 + f.volatility*(rng.Float64()*2-1)
			closeP := open * drift
			high := max(open, closeP) * (1 + f.volatility*rng.Float64()/2)
			low := min(open, closeP) * (1 - f.volatility*rng.Float64()/2)
			prices[a] = closeP
			actions = append(actions, PriceBar{
				Ref:    a,
				Open:   open,
				High:   high,
				Low:    low,
				Close:  closeP,
				Volume: 100 + rng.Float64()*900,
			})
		}
		if err := ch.Send(ctx, NewEvent(t, actions...)); err != nil {
			return err
		}
	}
	return nil
}
