package mailer

import (
	"bytes"
	"mime"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailblast/backend/internal/domain"
)

func TestBuildMessage(t *testing.T) {
	sender := &domain.Sender{Email: "outbox@example.com"}

	t.Run("生成合法的 RFC 5322 消息", func(t *testing.T) {
		raw, err := buildMessage(sender, &domain.OutboundMail{
			FromName: "Acme Mail",
			To:       "alice@example.org",
			ToName:   "Alice",
			Subject:  "Welcome",
			HTMLBody: "<p>Hello Alice</p>",
		})
		require.NoError(t, err)

		msg, err := mail.ReadMessage(bytes.NewReader(raw))
		require.NoError(t, err)

		from, err := msg.Header.AddressList("From")
		require.NoError(t, err)
		require.Len(t, from, 1)
		assert.Equal(t, "Acme Mail", from[0].Name)
		assert.Equal(t, "outbox@example.com", from[0].Address)

		to, err := msg.Header.AddressList("To")
		require.NoError(t, err)
		require.Len(t, to, 1)
		assert.Equal(t, "alice@example.org", to[0].Address)

		assert.Contains(t, msg.Header.Get("Content-Type"), "text/html")
		assert.Contains(t, string(raw), "<p>Hello Alice</p>")
	})

	t.Run("非 ASCII 主题使用 Q 编码", func(t *testing.T) {
		raw, err := buildMessage(sender, &domain.OutboundMail{
			FromName: "Acme",
			To:       "bob@example.org",
			Subject:  "欢迎加入",
			HTMLBody: "<p>hi</p>",
		})
		require.NoError(t, err)

		msg, err := mail.ReadMessage(bytes.NewReader(raw))
		require.NoError(t, err)

		decoder := new(mime.WordDecoder)
		subject, err := decoder.DecodeHeader(msg.Header.Get("Subject"))
		require.NoError(t, err)
		assert.Equal(t, "欢迎加入", subject)
	})

	t.Run("非法收件人地址返回错误", func(t *testing.T) {
		_, err := buildMessage(sender, &domain.OutboundMail{
			To:       "not-an-address",
			Subject:  "x",
			HTMLBody: "<p>x</p>",
		})
		assert.Error(t, err)
	})
}
