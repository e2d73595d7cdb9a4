package feed

import (
	"context"
	"errors"
	"sync"
)

// ErrChannelClosed 表示通道已关闭。对消费端这是正常终止信号，不是故障。
var ErrChannelClosed = errors.New("event channel closed")

// EventChannel 连接单一生产者（行情源）与单一消费者（运行循环）的有界缓冲。
// 只缓冲落在 timeframe 内的事件，区间外的事件在发送端被静默丢弃。
// 关闭是幂等的，也是阶段取消的唯一信号：阻塞中的 Send/Receive 都会解除。
type EventChannel struct {
	c    chan Event
	tf   Timeframe
	done chan struct{}
	once sync.Once
}

// NewEventChannel 创建容量为 capacity 的通道，capacity <= 0 时取 1。
func NewEventChannel(capacity int, tf Timeframe) *EventChannel {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventChannel{
		c:    make(chan Event, capacity),
		tf:   tf,
		done: make(chan struct{}),
	}
}

// Timeframe 返回通道接受的时间窗口。
func (ec *EventChannel) Timeframe() Timeframe {
	return ec.tf
}

// Send 写入事件，缓冲满时阻塞形成背压。
// 区间外的事件直接丢弃并返回 nil；通道关闭返回 ErrChannelClosed 而非死锁。
func (ec *EventChannel) Send(ctx context.Context, ev Event) error {
	if !ec.tf.Contains(ev.Time) {
		return nil
	}
	select {
	case <-ec.done:
		return ErrChannelClosed
	default:
	}
	select {
	case ec.c <- ev:
		return nil
	case <-ec.done:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive 取出事件，缓冲空时阻塞。
// 通道关闭后先交付剩余缓冲事件，排空后返回 ErrChannelClosed。
func (ec *EventChannel) Receive(ctx context.Context) (Event, error) {
	select {
	case ev := <-ec.c:
		return ev, nil
	case <-ec.done:
		// 关闭后仍需排空缓冲，保证已生产事件不丢失
		select {
		case ev := <-ec.c:
			return ev, nil
		default:
			return Event{}, ErrChannelClosed
		}
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close 关闭通道，可重复调用。
func (ec *EventChannel) Close() {
	ec.once.Do(func() { close(ec.done) })
}

// Closed 返回通道是否已关闭。
func (ec *EventChannel) Closed() bool {
	select {
	case <-ec.done:
		return true
	default:
		return false
	}
}
