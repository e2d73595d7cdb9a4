package engine

import (
	"sync"
)

// Orchestrator 并发运行多个相互独立的回测并等待全部完成。
// 各运行之间不共享账户与组件，单个运行失败不取消其余运行。
type Orchestrator struct {
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

// Go 提交一个运行任务并立即异步启动。
func (o *Orchestrator) Go(run func() error) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := run(); err != nil {
			o.mu.Lock()
			o.errs = append(o.errs, err)
			o.mu.Unlock()
		}
	}()
}

// Join 阻塞直到全部已提交任务完成或失败，返回收集到的错误。
func (o *Orchestrator) Join() []error {
	o.wg.Wait()
	o.mu.Lock()
	defer o.mu.Unlock()
	errs := make([]error, len(o.errs))
	copy(errs, o.errs)
	return errs
}
