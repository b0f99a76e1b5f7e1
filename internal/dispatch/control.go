package dispatch

import (
	"context"
	"sync"
	"time"
)

// DefaultPausePoll 暂停状态的默认轮询间隔
const DefaultPausePoll = time.Second

// runControl 单次运行的暂停状态
type runControl struct {
	paused bool
	resume chan struct{} // 恢复时关闭，唤醒阻塞中的调度协程
}

// Control 运行控制器
//
// 维护运行 ID 到暂停状态的并发安全映射。Pause/Resume 幂等，
// 对未注册的运行是空操作。调度协程通过 Gate 在每次投递前
// 检查暂停状态，暂停期间阻塞直到恢复信号或轮询确认。
type Control struct {
	mu   sync.Mutex
	runs map[string]*runControl
	poll time.Duration
}

// NewControl 创建运行控制器
func NewControl(poll time.Duration) *Control {
	if poll <= 0 {
		poll = DefaultPausePoll
	}
	return &Control{
		runs: make(map[string]*runControl),
		poll: poll,
	}
}

// Begin 注册一次运行，初始状态为执行中
func (c *Control) Begin(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[id] = &runControl{resume: make(chan struct{})}
}

// End 注销一次运行
//
// 注销后对该 ID 的 Pause/Resume 变为空操作。
func (c *Control) End(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if run, ok := c.runs[id]; ok && run.paused {
		close(run.resume)
	}
	delete(c.runs, id)
}

// Pause 请求暂停指定运行
//
// 返回是否找到该运行。重复调用与调用一次效果相同。
func (c *Control) Pause(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	run, ok := c.runs[id]
	if !ok {
		return false
	}
	if !run.paused {
		run.paused = true
		run.resume = make(chan struct{})
	}
	return true
}

// Resume 请求恢复指定运行
//
// 返回是否找到该运行。重复调用与调用一次效果相同。
func (c *Control) Resume(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	run, ok := c.runs[id]
	if !ok {
		return false
	}
	if run.paused {
		run.paused = false
		close(run.resume)
	}
	return true
}

// Paused 返回指定运行当前是否处于暂停状态
func (c *Control) Paused(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	run, ok := c.runs[id]
	return ok && run.paused
}

// Gate 在投递前的阻塞点
//
// 运行未暂停时立即返回。暂停期间阻塞当前协程，等待恢复
// 信号；同时保留一个轮询兜底和 ctx 取消出口。
func (c *Control) Gate(ctx context.Context, id string) error {
	for {
		c.mu.Lock()
		run, ok := c.runs[id]
		if !ok || !run.paused {
			c.mu.Unlock()
			return nil
		}
		resume := run.resume
		c.mu.Unlock()

		timer := time.NewTimer(c.poll)
		select {
		case <-resume:
			timer.Stop()
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
