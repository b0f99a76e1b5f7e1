package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mailblast/backend/internal/domain"
)

// Config 出站 SMTP 客户端配置
type Config struct {
	DialTimeout   time.Duration // 建立连接超时
	SendTimeout   time.Duration // 单条 SMTP 命令超时
	MaxPerSecond  float64       // 全局出站速率上限（连接/秒），0 表示不限制
	MaxBurst      int           // 速率限制突发量
	SkipTLSVerify bool          // 跳过证书校验，仅用于测试环境
}

// Client 出站 SMTP 投递客户端
//
// 每次投递建立一条新连接，按发信账号的端口自动选择
// 隐式 TLS 或 STARTTLS。全局速率限制器约束所有账号的
// 合计建连速率，避免触发上游服务商的限流。
type Client struct {
	cfg     Config
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewClient 创建投递客户端
func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 15 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.MaxPerSecond > 0 {
		limit = rate.Limit(cfg.MaxPerSecond)
	}
	burst := cfg.MaxBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
	}
}

// Send 通过指定发信账号投递一封邮件
//
// 投递流程: 等待速率许可 -> 建连 -> AUTH PLAIN -> 提交 -> QUIT。
// 任一步骤失败都返回错误，由调度层决定是否换账号重试。
func (c *Client) Send(ctx context.Context, sender *domain.Sender, mail *domain.OutboundMail) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	client, err := c.dial(ctx, sender)
	if err != nil {
		return fmt.Errorf("dial %s:%d: %w", sender.Host, sender.Port, err)
	}
	defer client.Close()

	client.CommandTimeout = c.cfg.SendTimeout
	client.SubmissionTimeout = c.cfg.SendTimeout

	auth := sasl.NewPlainClient("", sender.Email, sender.AppPassword)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("auth %s: %w", sender.Email, err)
	}

	msg, err := buildMessage(sender, mail)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	if err := client.SendMail(sender.Email, []string{mail.To}, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", mail.To, err)
	}

	c.log.Debug("mail delivered",
		zap.String("sender", sender.Email),
		zap.String("recipient", mail.To))

	return client.Quit()
}

// dial 建立到发信账号 SMTP 服务器的连接
func (c *Client) dial(ctx context.Context, sender *domain.Sender) (*smtp.Client, error) {
	addr := net.JoinHostPort(sender.Host, strconv.Itoa(sender.Port))
	tlsConfig := &tls.Config{
		ServerName:         sender.Host,
		InsecureSkipVerify: c.cfg.SkipTLSVerify,
	}

	if sender.UseTLS() {
		// 隐式 TLS: 连接建立即为加密信道
		dialer := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: c.cfg.DialTimeout},
			Config:    tlsConfig,
		}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn), nil
	}

	// STARTTLS: 明文连接后升级，握手由库完成（greet + EHLO + STARTTLS）
	dialer := &net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	client, err := smtp.NewClientStartTLS(conn, tlsConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("starttls: %w", err)
	}
	return client, nil
}
