package signal

import (
	"context"
	"sync"
	"time"
)

// RunState 进程级"继续运行"标志 + 唤醒通道
// 采集循环与 HTTP 服务共享同一个实例；一旦停止不可恢复
type RunState struct {
	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	reason string
}

// NewRunState 创建处于运行状态的 RunState
func NewRunState() *RunState {
	return &RunState{done: make(chan struct{})}
}

// Running 是否仍在运行
func (r *RunState) Running() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Stop 置为停止并唤醒所有等待者；只有第一次调用生效，返回是否由本次调用停止
func (r *RunState) Stop(reason string) bool {
	stopped := false
	r.once.Do(func() {
		r.mu.Lock()
		r.reason = reason
		r.mu.Unlock()
		close(r.done)
		stopped = true
	})
	return stopped
}

// Reason 返回停止原因
func (r *RunState) Reason() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}

// Done 停止后关闭的通道
func (r *RunState) Done() <-chan struct{} {
	return r.done
}

// Wait 最多睡眠 d，停止时提前唤醒；返回 true 表示时间到且仍在运行
func (r *RunState) Wait(d time.Duration) bool {
	if d <= 0 {
		return r.Running()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return r.Running()
	case <-r.done:
		return false
	}
}

// Context 派生一个在 RunState 停止时取消的 context
func (r *RunState) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-r.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
