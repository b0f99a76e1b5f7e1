package dispatch

import (
	"context"

	"mailblast/backend/internal/domain"
)

// Transport 邮件投递通道
//
// 引擎只关心一封邮件是否投递成功，具体协议由实现决定。
// 生产环境由 internal/mailer 的 SMTP 客户端实现，测试中
// 可替换为内存桩。
type Transport interface {
	Send(ctx context.Context, sender *domain.Sender, mail *domain.OutboundMail) error
}

// TransportFunc 将函数适配为 Transport
type TransportFunc func(ctx context.Context, sender *domain.Sender, mail *domain.OutboundMail) error

// Send 实现 Transport 接口
func (f TransportFunc) Send(ctx context.Context, sender *domain.Sender, mail *domain.OutboundMail) error {
	return f(ctx, sender, mail)
}
