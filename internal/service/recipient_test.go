package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/storage/memory"
)

func TestRecipientServiceCreate(t *testing.T) {
	t.Run("新收件人初始为 pending", func(t *testing.T) {
		svc := NewRecipientService(memory.NewStore())
		recipient, err := svc.Create(RecipientInput{Email: "alice@example.org", Name: "Alice"})
		require.NoError(t, err)

		assert.Equal(t, domain.RecipientStatusPending, recipient.Status)
		assert.Equal(t, "alice@example.org", recipient.Email)
		assert.NotEmpty(t, recipient.ID)
	})

	t.Run("非法邮箱被拒绝", func(t *testing.T) {
		svc := NewRecipientService(memory.NewStore())
		_, err := svc.Create(RecipientInput{Email: "oops"})
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})
}

func TestRecipientServiceList(t *testing.T) {
	t.Run("按状态过滤并分页", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewRecipientService(store)
		for i := 0; i < 5; i++ {
			_, err := svc.Create(RecipientInput{Email: strings.Replace("userN@example.org", "N", string(rune('a'+i)), 1)})
			require.NoError(t, err)
		}

		pending := domain.RecipientStatusPending
		page, total, err := svc.List(&pending, 1, 2)
		require.NoError(t, err)
		assert.Len(t, page, 2)
		assert.Equal(t, 5, total)

		sent := domain.RecipientStatusSent
		page, total, err = svc.List(&sent, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
		assert.Equal(t, 0, total)
	})

	t.Run("非法状态返回错误", func(t *testing.T) {
		svc := NewRecipientService(memory.NewStore())
		bogus := domain.RecipientStatus("bogus")
		_, _, err := svc.List(&bogus, 1, 10)
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestRecipientServiceResetAndClear(t *testing.T) {
	t.Run("重置状态供名单复用", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewRecipientService(store)

		recipient, err := svc.Create(RecipientInput{Email: "alice@example.org"})
		require.NoError(t, err)
		sent := domain.RecipientStatusSent
		_, err = svc.Update(recipient.ID, UpdateRecipientInput{Status: &sent})
		require.NoError(t, err)

		require.NoError(t, svc.ResetStatuses())
		got, err := svc.Get(recipient.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RecipientStatusPending, got.Status)
	})

	t.Run("清空全部收件人", func(t *testing.T) {
		svc := NewRecipientService(memory.NewStore())
		_, err := svc.Create(RecipientInput{Email: "alice@example.org"})
		require.NoError(t, err)

		require.NoError(t, svc.Clear())
		_, total, err := svc.List(nil, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})
}

func TestRecipientServiceImport(t *testing.T) {
	t.Run("JSON 导入记录非法行并继续", func(t *testing.T) {
		svc := NewRecipientService(memory.NewStore())
		result, err := svc.ImportJSON([]RecipientInput{
			{Email: "a@example.org", Name: "A"},
			{Email: "broken"},
			{Email: "b@example.org"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Imported)
		assert.Len(t, result.Errors, 1)
	})

	t.Run("CSV 导入跳过表头", func(t *testing.T) {
		svc := NewRecipientService(memory.NewStore())
		csvData := "email,name\nalice@example.org,Alice\nbob@example.org,Bob\n"

		result, err := svc.ImportCSV(strings.NewReader(csvData))
		require.NoError(t, err)
		assert.Equal(t, 2, result.Imported)

		_, total, err := svc.List(nil, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("无表头的纯数据也能导入", func(t *testing.T) {
		svc := NewRecipientService(memory.NewStore())
		csvData := "alice@example.org,Alice\nbob@example.org\n"

		result, err := svc.ImportCSV(strings.NewReader(csvData))
		require.NoError(t, err)
		assert.Equal(t, 2, result.Imported)
	})

	t.Run("空文件返回错误", func(t *testing.T) {
		svc := NewRecipientService(memory.NewStore())
		_, err := svc.ImportCSV(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyImportFile)
	})
}
