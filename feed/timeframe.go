package feed

import (
	"fmt"
	"time"
)

// Timeframe is an inclusive time window [Start, End]. The zero value is
// treated as empty; InfiniteTimeframe covers any event time.
type Timeframe struct {
	Start time.Time
	End   time.Time
}

// NewTimeframe 构造时间窗口，end 必须晚于 start。
func NewTimeframe(start, end time.Time) (Timeframe, error) {
	if !end.After(start) {
		return Timeframe{}, fmt.Errorf("invalid timeframe: end %s not after start %s", end, start)
	}
	return Timeframe{Start: start, End: end}, nil
}

// InfiniteTimeframe 覆盖任意时间，实时行情源使用。
func InfiniteTimeframe() Timeframe {
	return Timeframe{
		Start: time.Unix(0, 0).UTC(),
		End:   time.Unix(1<<40, 0).UTC(),
	}
}

// Contains reports whether t falls inside the window (inclusive).
func (tf Timeframe) Contains(t time.Time) bool {
	return !t.Before(tf.Start) && !t.After(tf.End)
}

// Overlaps reports whether the two windows share any instant.
func (tf Timeframe) Overlaps(other Timeframe) bool {
	return !tf.Start.After(other.End) && !other.Start.After(tf.End)
}

// Duration 返回窗口长度。
func (tf Timeframe) Duration() time.Duration {
	return tf.End.Sub(tf.Start)
}

// Split 将窗口按 step 切分为连续子窗口，最后一段可能不足 step。
func (tf Timeframe) Split(step time.Duration) []Timeframe {
	if step <= 0 {
		return nil
	}
	var out []Timeframe
	start := tf.Start
	for start.Before(tf.End) {
		end := start.Add(step)
		if end.After(tf.End) {
			end = tf.End
		}
		out = append(out, Timeframe{Start: start, End: end})
		start = end
	}
	return out
}

func (tf Timeframe) String() string {
	return fmt.Sprintf("[%s - %s]", tf.Start.Format(time.RFC3339), tf.End.Format(time.RFC3339))
}
