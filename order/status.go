package order

import "fmt"

// Status 订单生命周期状态。
type Status string

const (
	StatusInitial   Status = "INITIAL"   // 已创建，broker 尚未接收
	StatusAccepted  Status = "ACCEPTED"  // broker 持有，可撮合
	StatusCompleted Status = "COMPLETED" // 全部成交
	StatusCancelled Status = "CANCELLED" // 被撤单指令移除
	StatusExpired   Status = "EXPIRED"   // TIF 到期
	StatusRejected  Status = "REJECTED"  // 校验失败
)

// Terminal 判断是否终态。终态订单不再参与任何状态转换。
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired, StatusRejected:
		return true
	default:
		return false
	}
}

// Open 判断是否可能继续产生成交。
func (s Status) Open() bool {
	return s == StatusInitial || s == StatusAccepted
}

// transition 状态转换表。转换单向：INITIAL → ACCEPTED → 四个终态，
// INITIAL 也可直接被拒绝。终态不出现在任何 From 中。
type transition struct {
	From Status
	To   Status
}

var legalTransitions = map[transition]bool{
	{StatusInitial, StatusAccepted}:   true,
	{StatusInitial, StatusRejected}:   true,
	{StatusAccepted, StatusCompleted}: true,
	{StatusAccepted, StatusCancelled}: true,
	{StatusAccepted, StatusExpired}:   true,
	{StatusAccepted, StatusRejected}:  true,
}

// validateTransition 验证转换是否合法。同状态幂等。
func validateTransition(from, to Status) error {
	if from == to {
		return nil
	}
	if !legalTransitions[transition{From: from, To: to}] {
		return fmt.Errorf("illegal status transition: %s -> %s", from, to)
	}
	return nil
}
