package dispatch

import "sync"

// subscriberBuffer 订阅通道的缓冲大小
//
// 缓冲吃掉短暂的消费抖动；持续不消费的订阅者会被断开，
// 事件绝不乱序或在流中间丢弃。
const subscriberBuffer = 256

// feedState 单次运行的进度流状态
type feedState struct {
	lines []string    // 按发布顺序保存的完整进度日志
	sub   chan string // 当前订阅者，最多一个
}

// Feed 进度事件流
//
// 每个运行 ID 对应一条有序文本事件流。同一时刻最多一个
// 订阅者，后来的订阅者替换之前的。运行结束时流被关闭。
type Feed struct {
	mu   sync.Mutex
	runs map[string]*feedState
}

// NewFeed 创建进度事件流
func NewFeed() *Feed {
	return &Feed{runs: make(map[string]*feedState)}
}

func (f *Feed) state(id string) *feedState {
	if st, ok := f.runs[id]; ok {
		return st
	}
	st := &feedState{}
	f.runs[id] = st
	return st
}

// Publish 发布一条进度事件
//
// 事件先追加到运行的有序日志，再转发给当前订阅者。订阅者
// 缓冲已满说明其停止消费，此时断开该订阅者而不是阻塞调度。
func (f *Feed) Publish(id, line string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.state(id)
	st.lines = append(st.lines, line)

	if st.sub == nil {
		return
	}
	select {
	case st.sub <- line:
	default:
		close(st.sub)
		st.sub = nil
	}
}

// Subscribe 订阅指定运行的进度事件
//
// 返回的通道按发布顺序收到后续事件，运行结束时关闭。
// 已存在的订阅者被新订阅者替换（其通道被关闭）。
func (f *Feed) Subscribe(id string) <-chan string {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.state(id)
	if st.sub != nil {
		close(st.sub)
	}
	st.sub = make(chan string, subscriberBuffer)
	return st.sub
}

// Unsubscribe 取消订阅
//
// 仅当传入通道仍是当前订阅者时生效；运行本身继续执行。
// 对一个从未发布过事件的运行（比如订阅了不存在的运行 ID），
// 这里顺带清除惰性创建的流状态，避免无主条目堆积。
func (f *Feed) Unsubscribe(id string, ch <-chan string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.runs[id]
	if !ok || st.sub == nil || ch != st.sub {
		return
	}
	close(st.sub)
	st.sub = nil

	if len(st.lines) == 0 {
		delete(f.runs, id)
	}
}

// Close 结束指定运行的事件流
//
// 当前订阅者的通道被关闭，该运行的流状态被清除。
func (f *Feed) Close(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.runs[id]
	if !ok {
		return
	}
	if st.sub != nil {
		close(st.sub)
		st.sub = nil
	}
	delete(f.runs, id)
}

// Lines 返回指定运行到目前为止的全部进度日志副本
func (f *Feed) Lines(id string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.runs[id]
	if !ok {
		return nil
	}
	lines := make([]string, len(st.lines))
	copy(lines, st.lines)
	return lines
}
