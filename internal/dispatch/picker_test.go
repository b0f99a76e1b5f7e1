package dispatch

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailblast/backend/internal/domain"
)

func testAccounts(n, dailyLimit int) []*accountState {
	accounts := make([]*accountState, n)
	for i := range accounts {
		accounts[i] = newAccountState(&domain.Sender{
			ID:         fmt.Sprintf("s%d", i),
			Email:      fmt.Sprintf("out%d@example.com", i),
			DailyLimit: dailyLimit,
			IsActive:   true,
		})
	}
	return accounts
}

func TestPickerAccounts(t *testing.T) {
	t.Run("补满窗口内不重复抽取", func(t *testing.T) {
		accounts := testAccounts(4, 100)
		p := newPicker(accounts, nil, rand.New(rand.NewSource(1)))

		// 连续抽取两个完整窗口，每个账号在每个窗口内恰好出现一次
		for window := 0; window < 2; window++ {
			seen := make(map[string]bool)
			for i := 0; i < len(accounts); i++ {
				account := p.pickAccount()
				require.NotNil(t, account)
				assert.False(t, seen[account.sender.ID], "account drawn twice in one window")
				seen[account.sender.ID] = true
			}
		}
	})

	t.Run("全部耗尽返回 nil", func(t *testing.T) {
		accounts := testAccounts(2, 1)
		for _, a := range accounts {
			a.record()
		}
		p := newPicker(accounts, nil, rand.New(rand.NewSource(1)))
		assert.Nil(t, p.pickAccount())
	})

	t.Run("停用账号不参与抽取", func(t *testing.T) {
		accounts := testAccounts(2, 100)
		accounts[0].sender.IsActive = false
		p := newPicker(accounts, nil, rand.New(rand.NewSource(1)))

		for i := 0; i < 5; i++ {
			account := p.pickAccount()
			require.NotNil(t, account)
			assert.Equal(t, "s1", account.sender.ID)
		}
	})

	t.Run("抽中后发现配额耗尽则跳过重抽", func(t *testing.T) {
		accounts := testAccounts(2, 100)
		p := newPicker(accounts, nil, rand.New(rand.NewSource(1)))

		// 先抽一次，把两个账号都放进池里
		first := p.pickAccount()
		require.NotNil(t, first)

		// 另一个账号在池外被耗尽
		var other *accountState
		for _, a := range accounts {
			if a != first {
				other = a
			}
		}
		other.sender.SentCount = other.sender.DailyLimit

		second := p.pickAccount()
		require.NotNil(t, second)
		assert.Equal(t, first, second, "exhausted account should be skipped")
		assert.True(t, other.finished)
	})
}

func TestPickerTemplates(t *testing.T) {
	t.Run("模板池轮转使用", func(t *testing.T) {
		templates := []*domain.Template{
			{ID: "t1", Name: "a"},
			{ID: "t2", Name: "b"},
			{ID: "t3", Name: "c"},
		}
		p := newPicker(nil, templates, rand.New(rand.NewSource(1)))

		counts := make(map[string]int)
		for i := 0; i < 9; i++ {
			tmpl := p.pickTemplate()
			require.NotNil(t, tmpl)
			counts[tmpl.ID]++
		}
		for _, tmpl := range templates {
			assert.Equal(t, 3, counts[tmpl.ID])
		}
	})

	t.Run("无模板返回 nil", func(t *testing.T) {
		p := newPicker(nil, nil, rand.New(rand.NewSource(1)))
		assert.Nil(t, p.pickTemplate())
	})
}

func TestAccountState(t *testing.T) {
	t.Run("计数从持久化值起步", func(t *testing.T) {
		state := newAccountState(&domain.Sender{
			Email: "a@example.com", SentCount: 99, DailyLimit: 100, IsActive: true,
		})
		assert.True(t, state.canSend())

		state.record()
		assert.Equal(t, 100, state.sender.SentCount)
		assert.True(t, state.finished)
		assert.False(t, state.canSend())
	})

	t.Run("加载时已超限直接标记完成", func(t *testing.T) {
		state := newAccountState(&domain.Sender{
			Email: "a@example.com", SentCount: 5, DailyLimit: 5, IsActive: true,
		})
		assert.True(t, state.finished)
		assert.False(t, state.canSend())
	})
}
