package order

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"backsim/asset"
)

// Kind 订单类型标签，决定撮合逻辑由哪个 handler 承担。
type Kind string

const (
	KindMarket     Kind = "MARKET"
	KindLimit      Kind = "LIMIT"
	KindStop       Kind = "STOP"
	KindStopLimit  Kind = "STOP_LIMIT"
	KindTrail      Kind = "TRAIL"
	KindTrailLimit Kind = "TRAIL_LIMIT"
	KindCancel     Kind = "CANCEL"
)

var (
	ErrZeroSize       = errors.New("order size must be non-zero")
	ErrTargetTerminal = errors.New("cancellation target already terminal")
	ErrIllegalStatus  = errors.New("illegal status transition")
)

// State 订单状态子记录。
type State struct {
	Status   Status
	PlacedAt time.Time
	Updated  time.Time
}

// Order 交易指令的可变生命周期记录。
// Size 带符号：正为买入，负为卖出。撮合参数按 Kind 取用。
type Order struct {
	ID    string
	Asset asset.Asset
	Size  float64

	Kind        Kind
	Limit       float64 // LIMIT / STOP_LIMIT 的限价
	Stop        float64 // STOP / STOP_LIMIT 的触发价
	TrailPct    float64 // TRAIL / TRAIL_LIMIT 的回撤比例
	LimitOffset float64 // TRAIL_LIMIT 触发后限价相对动态止损价的偏移

	TIF    TimeInForce
	State  State
	Target *Order // KindCancel 的撤单目标
}

func newOrder(a asset.Asset, size float64, kind Kind) (*Order, error) {
	if size == 0 || math.IsNaN(size) {
		return nil, ErrZeroSize
	}
	return &Order{
		ID:    uuid.NewString(),
		Asset: a,
		Size:  size,
		Kind:  kind,
		TIF:   GTC{},
		State: State{Status: StatusInitial},
	}, nil
}

// NewMarketOrder 市价单。
func NewMarketOrder(a asset.Asset, size float64) (*Order, error) {
	return newOrder(a, size, KindMarket)
}

// NewLimitOrder 限价单。
func NewLimitOrder(a asset.Asset, size, limit float64) (*Order, error) {
	o, err := newOrder(a, size, KindLimit)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("invalid limit price %v", limit)
	}
	o.Limit = limit
	return o, nil
}

// NewStopOrder 止损单。size 为负是卖出止损，为正是买入止损。
func NewStopOrder(a asset.Asset, size, stop float64) (*Order, error) {
	o, err := newOrder(a, size, KindStop)
	if err != nil {
		return nil, err
	}
	if stop <= 0 {
		return nil, fmt.Errorf("invalid stop price %v", stop)
	}
	o.Stop = stop
	return o, nil
}

// NewStopLimitOrder 止损限价单：触发前休眠，触发后按限价单撮合。
func NewStopLimitOrder(a asset.Asset, size, stop, limit float64) (*Order, error) {
	o, err := newOrder(a, size, KindStopLimit)
	if err != nil {
		return nil, err
	}
	if stop <= 0 || limit <= 0 {
		return nil, fmt.Errorf("invalid stop/limit price %v/%v", stop, limit)
	}
	o.Stop = stop
	o.Limit = limit
	return o, nil
}

// NewTrailOrder 跟踪止损单，trailPct 为相对极值的回撤比例（0,1）。
func NewTrailOrder(a asset.Asset, size, trailPct float64) (*Order, error) {
	o, err := newOrder(a, size, KindTrail)
	if err != nil {
		return nil, err
	}
	if trailPct <= 0 || trailPct >= 1 {
		return nil, fmt.Errorf("trail percentage %v out of (0,1)", trailPct)
	}
	o.TrailPct = trailPct
	return o, nil
}

// NewTrailLimitOrder 跟踪止损限价单，limitOffset 为触发后限价相对止损价的偏移。
func NewTrailLimitOrder(a asset.Asset, size, trailPct, limitOffset float64) (*Order, error) {
	o, err := newOrder(a, size, KindTrailLimit)
	if err != nil {
		return nil, err
	}
	if trailPct <= 0 || trailPct >= 1 {
		return nil, fmt.Errorf("trail percentage %v out of (0,1)", trailPct)
	}
	o.TrailPct = trailPct
	o.LimitOffset = limitOffset
	return o, nil
}

// NewCancellationOrder 撤单指令，包装一个仍然开放的订单。
// 目标已处于终态时构造失败：撤销已结算指令是契约违规，不允许静默接受。
func NewCancellationOrder(target *Order) (*Order, error) {
	if target == nil {
		return nil, errors.New("cancellation target is nil")
	}
	if target.State.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrTargetTerminal, target.ID, target.State.Status)
	}
	return &Order{
		ID:     uuid.NewString(),
		Asset:  target.Asset,
		Size:   target.Size,
		Kind:   KindCancel,
		TIF:    GTC{},
		State:  State{Status: StatusInitial},
		Target: target,
	}, nil
}

// Buy 判断买卖方向。
func (o *Order) Buy() bool { return o.Size > 0 }

// Sell 判断买卖方向。
func (o *Order) Sell() bool { return o.Size < 0 }

// Status 返回当前状态。
func (o *Order) Status() Status { return o.State.Status }

// SetStatus 推进生命周期状态，非法转换返回错误。
// 状态只能单向推进，终态订单不可复活。
func (o *Order) SetStatus(st Status, now time.Time) error {
	if err := validateTransition(o.State.Status, st); err != nil {
		return fmt.Errorf("%w: order %s %s -> %s", ErrIllegalStatus, o.ID, o.State.Status, st)
	}
	if st == StatusAccepted && o.State.Status == StatusInitial {
		o.State.PlacedAt = now
	}
	o.State.Status = st
	o.State.Updated = now
	return nil
}

func (o *Order) String() string {
	return fmt.Sprintf("%s %s %s size=%v status=%s", o.Kind, o.ID[:8], o.Asset, o.Size, o.State.Status)
}
