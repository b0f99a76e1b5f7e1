package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/storage/memory"
)

// okTransport 永远成功的投递桩
var okTransport = TransportFunc(func(ctx context.Context, sender *domain.Sender, mail *domain.OutboundMail) error {
	return nil
})

func newTestEngine(store *memory.Store, transport Transport, opts Options) (*Engine, *Control, *Feed) {
	control := NewControl(10 * time.Millisecond)
	feed := NewFeed()
	engine := NewEngine(store, transport, control, feed, nil, zap.NewNop(), opts)
	return engine, control, feed
}

func seedSender(t *testing.T, store *memory.Store, email string, dailyLimit int) {
	t.Helper()
	require.NoError(t, store.SaveSender(&domain.Sender{
		ID: "sender-" + email, Email: email, AppPassword: "secret",
		Host: "smtp.example.com", Port: 465, Secure: true,
		DailyLimit: dailyLimit, IsActive: true,
	}))
}

func seedRecipients(t *testing.T, store *memory.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, store.SaveRecipient(&domain.Recipient{
			ID:     fmt.Sprintf("rcpt-%d", i),
			Email:  fmt.Sprintf("user%d@example.org", i),
			Name:   fmt.Sprintf("User %d", i),
			Status: domain.RecipientStatusPending,
		}))
	}
}

func seedTemplate(t *testing.T, store *memory.Store, id, name string) {
	t.Helper()
	require.NoError(t, store.SaveTemplate(&domain.Template{
		ID: id, Name: name,
		Subject:  "Hello {{Ten}}",
		HTMLBody: "<p>Hi {{Ten}}</p>",
	}))
}

func statusCounts(t *testing.T, store *memory.Store) map[domain.RecipientStatus]int {
	t.Helper()
	counts := make(map[domain.RecipientStatus]int)
	for _, status := range []domain.RecipientStatus{
		domain.RecipientStatusPending, domain.RecipientStatusSent, domain.RecipientStatusFailed,
	} {
		n, err := store.CountRecipientsByStatus(status)
		require.NoError(t, err)
		counts[status] = n
	}
	return counts
}

func TestEnginePreconditions(t *testing.T) {
	t.Run("没有可用账号时立即拒绝且无副作用", func(t *testing.T) {
		store := memory.NewStore()
		seedRecipients(t, store, 2)
		seedTemplate(t, store, "t1", "welcome")

		engine, _, _ := newTestEngine(store, okTransport, Options{})
		_, err := engine.Run(context.Background(), RunInput{RunID: "job-1", TemplateIDs: []string{"t1"}})
		assert.ErrorIs(t, err, ErrNoActiveSenders)

		counts := statusCounts(t, store)
		assert.Equal(t, 2, counts[domain.RecipientStatusPending])
		logs, err := store.ListDispatchLogs(0)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})

	t.Run("没有待发收件人时立即拒绝", func(t *testing.T) {
		store := memory.NewStore()
		seedSender(t, store, "out@example.com", 10)
		seedTemplate(t, store, "t1", "welcome")

		engine, _, _ := newTestEngine(store, okTransport, Options{})
		_, err := engine.Run(context.Background(), RunInput{RunID: "job-1", TemplateIDs: []string{"t1"}})
		assert.ErrorIs(t, err, ErrNoPendingRecipients)
	})

	t.Run("没有选中模板时立即拒绝", func(t *testing.T) {
		store := memory.NewStore()
		seedSender(t, store, "out@example.com", 10)
		seedRecipients(t, store, 1)

		engine, _, _ := newTestEngine(store, okTransport, Options{})
		_, err := engine.Run(context.Background(), RunInput{RunID: "job-1", TemplateIDs: []string{"missing"}})
		assert.ErrorIs(t, err, ErrNoTemplates)
	})
}

func TestEngineRun(t *testing.T) {
	t.Run("账号充足时一轮全部送达", func(t *testing.T) {
		store := memory.NewStore()
		seedSender(t, store, "out1@example.com", 10)
		seedSender(t, store, "out2@example.com", 10)
		seedRecipients(t, store, 5)
		seedTemplate(t, store, "t1", "welcome")

		engine, _, _ := newTestEngine(store, okTransport, Options{})
		summary, err := engine.Run(context.Background(), RunInput{
			RunID: "job-1", TemplateIDs: []string{"t1"}, BrandName: "Acme",
		})
		require.NoError(t, err)

		assert.Equal(t, 5, summary.TotalSent)
		assert.Equal(t, 0, summary.TotalFailed)
		assert.Equal(t, 1, summary.Rounds)

		counts := statusCounts(t, store)
		assert.Equal(t, 5, counts[domain.RecipientStatusSent])
		assert.Equal(t, 0, counts[domain.RecipientStatusPending])
	})

	t.Run("配额耗尽后第二轮确认僵局并结束", func(t *testing.T) {
		store := memory.NewStore()
		seedSender(t, store, "out@example.com", 2)
		seedRecipients(t, store, 3)
		seedTemplate(t, store, "t1", "welcome")

		engine, _, _ := newTestEngine(store, okTransport, Options{})
		summary, err := engine.Run(context.Background(), RunInput{
			RunID: "job-1", TemplateIDs: []string{"t1"},
		})
		require.NoError(t, err)

		assert.Equal(t, 2, summary.TotalSent)
		assert.Equal(t, 2, summary.Rounds)

		counts := statusCounts(t, store)
		assert.Equal(t, 2, counts[domain.RecipientStatusSent])
		assert.Equal(t, 1, counts[domain.RecipientStatusPending])

		// 配额不变式: 计数不越过每日上限
		sender, err := store.GetSenderByEmail("out@example.com")
		require.NoError(t, err)
		assert.Equal(t, 2, sender.SentCount)
	})

	t.Run("达到成功上限后立即结束", func(t *testing.T) {
		store := memory.NewStore()
		seedSender(t, store, "out@example.com", 100)
		seedRecipients(t, store, 10)
		seedTemplate(t, store, "t1", "welcome")

		limit := 3
		engine, _, _ := newTestEngine(store, okTransport, Options{})
		summary, err := engine.Run(context.Background(), RunInput{
			RunID: "job-1", TemplateIDs: []string{"t1"}, TotalLimit: &limit,
		})
		require.NoError(t, err)

		assert.Equal(t, 3, summary.TotalSent)
		counts := statusCounts(t, store)
		assert.Equal(t, 3, counts[domain.RecipientStatusSent])
		assert.Equal(t, 7, counts[domain.RecipientStatusPending])
	})

	t.Run("失败收件人逐轮重试直到轮次上限", func(t *testing.T) {
		store := memory.NewStore()
		seedSender(t, store, "out@example.com", 100)
		seedRecipients(t, store, 1)
		seedTemplate(t, store, "t1", "welcome")

		failing := TransportFunc(func(ctx context.Context, sender *domain.Sender, mail *domain.OutboundMail) error {
			return errors.New("mailbox unavailable")
		})

		engine, _, _ := newTestEngine(store, failing, Options{MaxRounds: 3})
		summary, err := engine.Run(context.Background(), RunInput{
			RunID: "job-1", TemplateIDs: []string{"t1"},
		})
		require.NoError(t, err)

		assert.Equal(t, 0, summary.TotalSent)
		assert.Equal(t, 3, summary.TotalFailed)
		assert.Equal(t, 3, summary.Rounds)

		counts := statusCounts(t, store)
		assert.Equal(t, 1, counts[domain.RecipientStatusFailed])

		// 失败同样消耗配额
		sender, err := store.GetSenderByEmail("out@example.com")
		require.NoError(t, err)
		assert.Equal(t, 3, sender.SentCount)

		logs, err := store.ListDispatchLogs(0)
		require.NoError(t, err)
		require.Len(t, logs, 3)
		assert.Equal(t, domain.DispatchStatusFailed, logs[0].Status)
		assert.Equal(t, "mailbox unavailable", logs[0].ErrorMessage)
	})

	t.Run("成功投递累加模板计数", func(t *testing.T) {
		store := memory.NewStore()
		seedSender(t, store, "out@example.com", 100)
		seedRecipients(t, store, 4)
		seedTemplate(t, store, "t1", "welcome")
		seedTemplate(t, store, "t2", "follow-up")

		engine, _, _ := newTestEngine(store, okTransport, Options{})
		_, err := engine.Run(context.Background(), RunInput{
			RunID: "job-1", TemplateIDs: []string{"t1", "t2"},
		})
		require.NoError(t, err)

		t1, err := store.GetTemplate("t1")
		require.NoError(t, err)
		t2, err := store.GetTemplate("t2")
		require.NoError(t, err)
		// 无放回抽取: 4 次投递在两个模板间均分
		assert.Equal(t, 2, t1.SentCount)
		assert.Equal(t, 2, t2.SentCount)
	})

	t.Run("占位符替换为收件人姓名", func(t *testing.T) {
		store := memory.NewStore()
		seedSender(t, store, "out@example.com", 100)
		require.NoError(t, store.SaveRecipient(&domain.Recipient{
			ID: "r1", Email: "alice@example.org", Name: "Alice",
			Status: domain.RecipientStatusPending,
		}))
		seedTemplate(t, store, "t1", "welcome")

		var got *domain.OutboundMail
		capture := TransportFunc(func(ctx context.Context, sender *domain.Sender, mail *domain.OutboundMail) error {
			got = mail
			return nil
		})

		engine, _, _ := newTestEngine(store, capture, Options{})
		_, err := engine.Run(context.Background(), RunInput{
			RunID: "job-1", TemplateIDs: []string{"t1"}, BrandName: "Acme",
		})
		require.NoError(t, err)

		require.NotNil(t, got)
		assert.Equal(t, "Acme", got.FromName)
		assert.Equal(t, "Hello Alice", got.Subject)
		assert.Equal(t, "<p>Hi Alice</p>", got.HTMLBody)
	})
}

func TestEnginePause(t *testing.T) {
	t.Run("暂停在下一次投递前生效", func(t *testing.T) {
		store := memory.NewStore()
		seedSender(t, store, "out@example.com", 100)
		seedRecipients(t, store, 3)
		seedTemplate(t, store, "t1", "welcome")

		var mu sync.Mutex
		sent := 0
		firstSent := make(chan struct{})
		transport := TransportFunc(func(ctx context.Context, sender *domain.Sender, mail *domain.OutboundMail) error {
			mu.Lock()
			sent++
			if sent == 1 {
				close(firstSent)
			}
			mu.Unlock()
			return nil
		})

		engine, control, _ := newTestEngine(store, transport, Options{})

		finished := make(chan *RunSummary, 1)
		go func() {
			summary, _ := engine.Run(context.Background(), RunInput{
				RunID: "job-1", TemplateIDs: []string{"t1"},
			})
			finished <- summary
		}()

		<-firstSent
		control.Pause("job-1")

		// 暂停窗口内观察计数不再增长
		time.Sleep(100 * time.Millisecond)
		mu.Lock()
		pausedAt := sent
		mu.Unlock()

		time.Sleep(100 * time.Millisecond)
		mu.Lock()
		assert.Equal(t, pausedAt, sent, "send started while paused")
		mu.Unlock()

		control.Resume("job-1")
		select {
		case summary := <-finished:
			assert.Equal(t, 3, summary.TotalSent)
		case <-time.After(5 * time.Second):
			t.Fatal("run did not finish after resume")
		}
	})
}

func TestEngineProgressOrdering(t *testing.T) {
	t.Run("订阅者收到的事件与运行日志同序", func(t *testing.T) {
		store := memory.NewStore()
		seedSender(t, store, "out@example.com", 100)
		seedRecipients(t, store, 5)
		seedTemplate(t, store, "t1", "welcome")

		engine, _, feed := newTestEngine(store, okTransport, Options{})

		ch := feed.Subscribe("job-1")
		var events []string
		collected := make(chan struct{})
		go func() {
			for line := range ch {
				events = append(events, line)
			}
			close(collected)
		}()

		summary, err := engine.Run(context.Background(), RunInput{
			RunID: "job-1", TemplateIDs: []string{"t1"},
		})
		require.NoError(t, err)

		<-collected
		assert.Equal(t, summary.Logs, events)
	})
}
