package engine

import "time"

// Phase 运行阶段。
type Phase int

const (
	// PhaseMain 主评估阶段
	PhaseMain Phase = iota
	// PhaseValidate 留出验证阶段
	PhaseValidate
)

// String 返回阶段名称。
func (p Phase) String() string {
	switch p {
	case PhaseMain:
		return "MAIN"
	case PhaseValidate:
		return "VALIDATE"
	default:
		return "UNKNOWN"
	}
}

// RunInfo 运行期计数器：运行/回合/步序号、当前模拟时间与阶段。
// 单写者：只由运行循环推进，构造与 Reset 时清零。
type RunInfo struct {
	Run     string
	Episode int
	Step    int
	Time    time.Time
	Phase   Phase
}

// NewRunInfo 创建计数器。
func NewRunInfo(run string) *RunInfo {
	return &RunInfo{Run: run}
}

// NextEpisode 进入下一回合。
func (r *RunInfo) NextEpisode() {
	r.Episode++
}

// BeginPhase 进入新阶段，步数清零。
func (r *RunInfo) BeginPhase(phase Phase) {
	r.Phase = phase
	r.Step = 0
}

// NextStep 推进一步并更新模拟时间。
func (r *RunInfo) NextStep(t time.Time) {
	r.Step++
	r.Time = t
}

// Reset 清零全部计数。
func (r *RunInfo) Reset() {
	r.Episode = 0
	r.Step = 0
	r.Time = time.Time{}
	r.Phase = PhaseMain
}
