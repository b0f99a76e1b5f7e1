package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/monitoring"
	"mailblast/backend/internal/storage"
)

var (
	// ErrNoActiveSenders 没有可用的发信账号
	ErrNoActiveSenders = errors.New("no active sender accounts")
	// ErrNoPendingRecipients 没有待发送的收件人
	ErrNoPendingRecipients = errors.New("no pending recipients")
	// ErrNoTemplates 没有可用的邮件模板
	ErrNoTemplates = errors.New("no templates selected")
)

// RunInput 一次活动运行的输入参数
type RunInput struct {
	RunID       string   // 调用方提供的运行标识
	TemplateIDs []string // 本次启用的模板
	BrandName   string   // 发件人显示名称
	MinDelay    int      // 每次投递后的最小等待秒数
	MaxDelay    int      // 每次投递后的最大等待秒数
	TotalLimit  *int     // 成功投递总数上限，nil 表示不限制
}

// RunSummary 活动运行结束后的汇总
type RunSummary struct {
	TotalSent   int      `json:"totalSent"`
	TotalFailed int      `json:"totalFailed"`
	Rounds      int      `json:"rounds"`
	Logs        []string `json:"logs"`
}

// Options 引擎可调参数
type Options struct {
	MaxRounds int // 重试轮次上限，0 表示不限制
}

// Engine 活动调度引擎
//
// 单次运行由一个协程顺序驱动: 逐轮查询待发收件人，为每个
// 收件人随机选取账号和模板，投递后持久化状态变更并发布
// 进度事件。多个运行可以并发执行，彼此只共享存储。
type Engine struct {
	store     storage.Store
	transport Transport
	control   *Control
	feed      *Feed
	metrics   *monitoring.Metrics
	log       *zap.Logger
	opts      Options
}

// NewEngine 创建调度引擎
func NewEngine(store storage.Store, transport Transport, control *Control, feed *Feed, metrics *monitoring.Metrics, log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store:     store,
		transport: transport,
		control:   control,
		feed:      feed,
		metrics:   metrics,
		log:       log,
		opts:      opts,
	}
}

// Run 执行一次活动运行，完成后返回汇总
//
// 前置校验失败立即返回类型化错误，不产生任何副作用。
// 投递层面的错误不会中断运行，只会把收件人标记为 failed
// 留待后续轮次重试。ctx 取消时返回当前已完成的部分汇总。
func (e *Engine) Run(ctx context.Context, input RunInput) (*RunSummary, error) {
	senders, err := e.store.ListActiveSenders()
	if err != nil {
		return nil, fmt.Errorf("list active senders: %w", err)
	}
	if len(senders) == 0 {
		return nil, ErrNoActiveSenders
	}

	pending, err := e.store.CountRecipientsByStatus(domain.RecipientStatusPending)
	if err != nil {
		return nil, fmt.Errorf("count pending recipients: %w", err)
	}
	if pending == 0 {
		return nil, ErrNoPendingRecipients
	}

	templates, err := e.store.ListTemplatesByIDs(input.TemplateIDs)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if len(templates) == 0 {
		return nil, ErrNoTemplates
	}

	run := &runner{
		engine:    e,
		input:     input,
		templates: make([]*domain.Template, len(templates)),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		summary:   &RunSummary{},
	}
	for i := range templates {
		run.templates[i] = &templates[i]
	}
	run.accounts = make([]*accountState, len(senders))
	for i := range senders {
		run.accounts[i] = newAccountState(&senders[i])
	}

	e.control.Begin(input.RunID)
	defer e.control.End(input.RunID)
	defer e.feed.Close(input.RunID)

	if e.metrics != nil {
		e.metrics.RecordCampaignStarted()
		defer e.metrics.RecordCampaignFinished()
	}

	e.log.Info("campaign run started",
		zap.String("run_id", input.RunID),
		zap.Int("senders", len(senders)),
		zap.Int("templates", len(templates)),
		zap.Int("pending", pending))

	err = run.execute(ctx)

	run.publish(fmt.Sprintf("campaign complete: %d sent, %d failed in %d round(s)",
		run.summary.TotalSent, run.summary.TotalFailed, run.summary.Rounds))

	e.log.Info("campaign run finished",
		zap.String("run_id", input.RunID),
		zap.Int("total_sent", run.summary.TotalSent),
		zap.Int("total_failed", run.summary.TotalFailed),
		zap.Int("rounds", run.summary.Rounds),
		zap.Error(err))

	return run.summary, err
}

// runner 单次运行的可变状态
type runner struct {
	engine    *Engine
	input     RunInput
	accounts  []*accountState
	templates []*domain.Template
	rng       *rand.Rand
	summary   *RunSummary
}

// execute 驱动轮次循环直到活动结束
func (r *runner) execute(ctx context.Context) error {
	for {
		if r.engine.opts.MaxRounds > 0 && r.summary.Rounds >= r.engine.opts.MaxRounds {
			r.publish(fmt.Sprintf("round limit %d reached, stopping", r.engine.opts.MaxRounds))
			return nil
		}

		recipients, err := r.engine.store.ListRecipientsByStatus(
			domain.RecipientStatusPending, domain.RecipientStatusFailed)
		if err != nil {
			return fmt.Errorf("list recipients: %w", err)
		}
		if len(recipients) == 0 {
			return nil
		}

		r.summary.Rounds++
		if r.engine.metrics != nil {
			r.engine.metrics.RecordRound()
		}
		r.publish(fmt.Sprintf("round %d started: %d recipient(s) to process",
			r.summary.Rounds, len(recipients)))

		attempted, earlyExit, done, err := r.round(ctx, recipients)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if attempted == 0 {
			// 一个收件人都没能尝试，说明账号全部耗尽，再开一轮也是同样结果
			r.publish(fmt.Sprintf("round %d made no attempts, ending campaign", r.summary.Rounds))
			return nil
		}

		failed, err := r.engine.store.CountRecipientsByStatus(domain.RecipientStatusFailed)
		if err != nil {
			return fmt.Errorf("count failed recipients: %w", err)
		}
		if failed == 0 && !earlyExit {
			return nil
		}
		// 还有 failed 收件人，或本轮因账号耗尽提前结束留下了未处理的
		// 收件人: 下一轮重新查询存储并重试
	}
}

// round 执行一轮投递
//
// 返回本轮尝试次数、是否因账号耗尽提前退出、活动是否已达
// 成功上限结束。
func (r *runner) round(ctx context.Context, recipients []domain.Recipient) (attempted int, earlyExit, done bool, err error) {
	picker := newPicker(r.accounts, r.templates, r.rng)

	for i := range recipients {
		recipient := &recipients[i]

		if r.limitReached() {
			r.publish(fmt.Sprintf("total limit %d reached, stopping campaign", *r.input.TotalLimit))
			return attempted, false, true, nil
		}

		// 暂停必须在下一次投递开始前生效
		if err := r.engine.control.Gate(ctx, r.input.RunID); err != nil {
			return attempted, false, false, err
		}

		account := picker.pickAccount()
		if account == nil {
			r.publish("all sender accounts exhausted, ending round early")
			return attempted, true, false, nil
		}
		template := picker.pickTemplate()
		if template == nil {
			return attempted, true, false, nil
		}

		attempted++
		r.attempt(ctx, account, template, recipient)

		if err := r.wait(ctx); err != nil {
			return attempted, false, false, err
		}
	}

	return attempted, false, false, nil
}

// attempt 对单个收件人执行一次投递并持久化结果
func (r *runner) attempt(ctx context.Context, account *accountState, template *domain.Template, recipient *domain.Recipient) {
	mail := &domain.OutboundMail{
		FromName: r.input.BrandName,
		To:       recipient.Email,
		ToName:   recipient.Name,
		Subject:  template.RenderSubject(recipient.Name),
		HTMLBody: template.RenderBody(recipient.Name),
	}

	started := time.Now()
	sendErr := r.engine.transport.Send(ctx, account.sender, mail)
	elapsed := time.Since(started)

	// 成功与失败同样消耗账号配额
	account.record()
	if err := r.engine.store.SaveSender(account.sender); err != nil {
		r.engine.log.Error("persist sender counter failed",
			zap.String("sender", account.sender.Email), zap.Error(err))
	}

	entry := &domain.DispatchLog{
		ID:             uuid.NewString(),
		SenderEmail:    account.sender.Email,
		RecipientEmail: recipient.Email,
		CreatedAt:      time.Now().UTC(),
	}

	if sendErr == nil {
		recipient.Status = domain.RecipientStatusSent
		r.summary.TotalSent++
		entry.Status = domain.DispatchStatusSent

		template.SentCount++
		if err := r.engine.store.SaveTemplate(template); err != nil {
			r.engine.log.Error("persist template counter failed",
				zap.String("template", template.Name), zap.Error(err))
		}
		if r.engine.metrics != nil {
			r.engine.metrics.RecordEmailSent(elapsed)
		}
		r.publish(fmt.Sprintf("sent to %s via %s using template %q",
			recipient.Email, account.sender.Email, template.Name))
	} else {
		recipient.Status = domain.RecipientStatusFailed
		r.summary.TotalFailed++
		entry.Status = domain.DispatchStatusFailed
		entry.ErrorMessage = sendErr.Error()

		if r.engine.metrics != nil {
			r.engine.metrics.RecordEmailFailed(elapsed)
		}
		r.publish(fmt.Sprintf("failed to send to %s via %s: %v",
			recipient.Email, account.sender.Email, sendErr))
	}

	if err := r.engine.store.SaveRecipient(recipient); err != nil {
		r.engine.log.Error("persist recipient status failed",
			zap.String("recipient", recipient.Email), zap.Error(err))
	}
	// 投递记录写入失败不中断发送
	if err := r.engine.store.AppendDispatchLog(entry); err != nil {
		r.engine.log.Error("append dispatch log failed", zap.Error(err))
	}
}

// publish 发布一条进度事件并收入运行汇总
func (r *runner) publish(line string) {
	r.summary.Logs = append(r.summary.Logs, line)
	r.engine.feed.Publish(r.input.RunID, line)
}

// limitReached 判断成功投递数是否已达上限
func (r *runner) limitReached() bool {
	return r.input.TotalLimit != nil && *r.input.TotalLimit > 0 &&
		r.summary.TotalSent >= *r.input.TotalLimit
}

// wait 在两次投递之间随机等待
func (r *runner) wait(ctx context.Context) error {
	minDelay, maxDelay := r.input.MinDelay, r.input.MaxDelay
	if minDelay > maxDelay {
		minDelay, maxDelay = maxDelay, minDelay
	}
	if maxDelay <= 0 {
		return nil
	}

	seconds := minDelay
	if span := maxDelay - minDelay; span > 0 {
		seconds += r.rng.Intn(span + 1)
	}
	if seconds <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(seconds) * time.Second)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
