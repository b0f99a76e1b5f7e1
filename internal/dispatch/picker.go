package dispatch

import (
	"math/rand"

	"mailblast/backend/internal/domain"
)

// picker 账号与模板的随机选取器
//
// 两个池各自独立地做无放回随机抽取: 池空时从完整候选集
// 重新补满再抽。这样长轮次中每个可用账号/模板被使用的
// 次数大致均匀，而不是同一个账号被反复命中。
type picker struct {
	rng *rand.Rand

	accounts    []*accountState
	accountPool []*accountState

	templates    []*domain.Template
	templatePool []*domain.Template
}

func newPicker(accounts []*accountState, templates []*domain.Template, rng *rand.Rand) *picker {
	return &picker{
		rng:       rng,
		accounts:  accounts,
		templates: templates,
	}
}

// pickAccount 随机选取一个仍可投递的账号
//
// 抽到的账号若在池补满之后配额已被耗尽（上一次投递刚好
// 用掉最后一个名额），则直接跳过并继续抽取，不消耗收件人。
// 所有账号都不可用时返回 nil，当前轮次提前结束。
func (p *picker) pickAccount() *accountState {
	for {
		if len(p.accountPool) == 0 {
			for _, account := range p.accounts {
				if account.canSend() {
					p.accountPool = append(p.accountPool, account)
				}
			}
			if len(p.accountPool) == 0 {
				return nil
			}
		}

		idx := p.rng.Intn(len(p.accountPool))
		account := p.accountPool[idx]
		p.accountPool = append(p.accountPool[:idx], p.accountPool[idx+1:]...)

		if account.canSend() {
			return account
		}
		account.finished = true
	}
}

// pickTemplate 随机选取一个模板
func (p *picker) pickTemplate() *domain.Template {
	if len(p.templates) == 0 {
		return nil
	}

	if len(p.templatePool) == 0 {
		p.templatePool = append(p.templatePool, p.templates...)
	}

	idx := p.rng.Intn(len(p.templatePool))
	template := p.templatePool[idx]
	p.templatePool = append(p.templatePool[:idx], p.templatePool[idx+1:]...)
	return template
}
