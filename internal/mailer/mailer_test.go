package mailer

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailblast/backend/internal/domain"
)

func testMail() *domain.OutboundMail {
	return &domain.OutboundMail{
		FromName: "Acme",
		To:       "to@example.com",
		Subject:  "Hi",
		HTMLBody: "<p>x</p>",
	}
}

// listenerPort 在回环地址上占一个端口并返回它
func listenerPort(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	return ln, port
}

func TestSendDialFailures(t *testing.T) {
	client := NewClient(Config{DialTimeout: 2 * time.Second}, zap.NewNop())

	t.Run("连接被拒绝", func(t *testing.T) {
		ln, port := listenerPort(t)
		ln.Close()

		sender := &domain.Sender{
			Email: "a@x.com", AppPassword: "pw",
			Host: "127.0.0.1", Port: port, Secure: false,
		}
		err := client.Send(context.Background(), sender, testMail())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dial 127.0.0.1:"+strconv.Itoa(port))
	})

	t.Run("隐式 TLS 握手失败", func(t *testing.T) {
		ln, port := listenerPort(t)
		defer ln.Close()
		go func() {
			// 接受后立即断开，TLS 握手必然失败
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}()

		sender := &domain.Sender{
			Email: "a@x.com", AppPassword: "pw",
			Host: "127.0.0.1", Port: port, Secure: true,
		}
		err := client.Send(context.Background(), sender, testMail())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dial")
	})

	t.Run("取消的上下文中止建连", func(t *testing.T) {
		ln, port := listenerPort(t)
		defer ln.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		sender := &domain.Sender{
			Email: "a@x.com", AppPassword: "pw",
			Host: "127.0.0.1", Port: port, Secure: false,
		}
		err := client.Send(ctx, sender, testMail())
		assert.Error(t, err)
	})
}

func TestSendStartTLSNotSupported(t *testing.T) {
	ln, port := listenerPort(t)
	defer ln.Close()

	// 最小 SMTP 服务端: 问候 + 不带 STARTTLS 扩展的 EHLO 应答
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		br := bufio.NewReader(conn)
		fmt.Fprintf(conn, "220 mail.test ESMTP\r\n")
		if _, err := br.ReadString('\n'); err != nil {
			return
		}
		fmt.Fprintf(conn, "250 mail.test\r\n")
		br.ReadString('\n')
	}()

	client := NewClient(Config{DialTimeout: 2 * time.Second, SendTimeout: 2 * time.Second}, zap.NewNop())
	sender := &domain.Sender{
		Email: "a@x.com", AppPassword: "pw",
		Host: "127.0.0.1", Port: port, Secure: false,
	}

	err := client.Send(context.Background(), sender, testMail())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starttls")
}
