package mailer

import (
	"bytes"
	"fmt"
	"mime"
	"net/mail"
	"time"

	"mailblast/backend/internal/domain"
)

// buildMessage 将出站邮件编码为 RFC 5322 消息
//
// 正文以 UTF-8 HTML 发送，主题和显示名称使用 Q 编码，
// 兼容含非 ASCII 字符的品牌名和收件人姓名。
func buildMessage(sender *domain.Sender, m *domain.OutboundMail) ([]byte, error) {
	if _, err := mail.ParseAddress(m.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", m.To, err)
	}

	from := mail.Address{Name: m.FromName, Address: sender.Email}
	to := mail.Address{Name: m.ToName, Address: m.To}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: <%d.%s>\r\n", time.Now().UnixNano(), sender.Email)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(m.HTMLBody)
	buf.WriteString("\r\n")

	return buf.Bytes(), nil
}
