package dispatch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed(t *testing.T) {
	t.Run("事件按发布顺序送达", func(t *testing.T) {
		f := NewFeed()
		ch := f.Subscribe("run-1")
		require.NotNil(t, ch)

		for i := 0; i < 10; i++ {
			f.Publish("run-1", fmt.Sprintf("line %d", i))
		}
		f.Close("run-1")

		var got []string
		for line := range ch {
			got = append(got, line)
		}
		require.Len(t, got, 10)
		for i, line := range got {
			assert.Equal(t, fmt.Sprintf("line %d", i), line)
		}
	})

	t.Run("Lines 保留完整有序日志", func(t *testing.T) {
		f := NewFeed()
		f.Publish("run-1", "a")
		f.Publish("run-1", "b")

		assert.Equal(t, []string{"a", "b"}, f.Lines("run-1"))
	})

	t.Run("后来的订阅者替换之前的", func(t *testing.T) {
		f := NewFeed()
		first := f.Subscribe("run-1")
		second := f.Subscribe("run-1")

		// 第一个订阅者的通道被关闭
		_, open := <-first
		assert.False(t, open)

		f.Publish("run-1", "hello")
		assert.Equal(t, "hello", <-second)
	})

	t.Run("停止消费的订阅者被断开", func(t *testing.T) {
		f := NewFeed()
		ch := f.Subscribe("run-1")

		// 缓冲填满后再发布一条，订阅者被断开但日志不丢
		for i := 0; i <= subscriberBuffer; i++ {
			f.Publish("run-1", fmt.Sprintf("line %d", i))
		}

		var got []string
		for line := range ch {
			got = append(got, line)
		}
		assert.Len(t, got, subscriberBuffer)
		assert.Len(t, f.Lines("run-1"), subscriberBuffer+1)

		// 断开后发布仍然记录日志
		f.Publish("run-1", "after detach")
		assert.Len(t, f.Lines("run-1"), subscriberBuffer+2)
	})

	t.Run("Unsubscribe 只取消当前订阅者", func(t *testing.T) {
		f := NewFeed()
		old := f.Subscribe("run-1")
		current := f.Subscribe("run-1")

		// 旧通道已被替换，取消它不影响当前订阅者
		f.Unsubscribe("run-1", old)
		f.Publish("run-1", "still here")
		assert.Equal(t, "still here", <-current)

		f.Unsubscribe("run-1", current)
		_, open := <-current
		assert.False(t, open)
	})

	t.Run("取消订阅无事件的运行不留状态", func(t *testing.T) {
		f := NewFeed()
		ch := f.Subscribe("no-such-run")
		f.Unsubscribe("no-such-run", ch)

		_, open := <-ch
		assert.False(t, open)
		assert.Empty(t, f.runs)

		// 已有日志的运行在取消订阅后保留状态，直到 Close
		f.Publish("run-1", "a")
		ch = f.Subscribe("run-1")
		f.Unsubscribe("run-1", ch)
		assert.Equal(t, []string{"a"}, f.Lines("run-1"))
	})

	t.Run("Close 结束流并清除状态", func(t *testing.T) {
		f := NewFeed()
		f.Publish("run-1", "a")
		ch := f.Subscribe("run-1")
		f.Close("run-1")

		_, open := <-ch
		assert.False(t, open)
		assert.Empty(t, f.Lines("run-1"))
	})
}
