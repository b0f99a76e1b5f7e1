package dispatch

import "mailblast/backend/internal/domain"

// accountState 发信账号在单次活动运行中的状态
//
// 计数器直接落在加载进来的 Sender 副本上（以持久化的
// SentCount 为起点），每次写回存储。finished 标志一旦
// 置位就不再清除，账号在本次运行中不会被再次选中。
type accountState struct {
	sender   *domain.Sender
	finished bool
}

func newAccountState(sender *domain.Sender) *accountState {
	s := *sender
	state := &accountState{sender: &s}
	if !s.HasQuota() {
		state.finished = true
	}
	return state
}

// canSend 判断账号当前是否可用于投递
func (a *accountState) canSend() bool {
	return a.sender.IsActive && !a.finished && a.sender.HasQuota()
}

// record 记录一次投递尝试
//
// 成功与失败同样消耗配额: 被拒收的邮件也占用了一次
// SMTP 提交。达到每日上限后账号在本次运行中标记为完成。
func (a *accountState) record() {
	a.sender.SentCount++
	if a.sender.SentCount >= a.sender.DailyLimit {
		a.finished = true
	}
}
