package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubSource 返回预先填好并关闭的事件通道
type stubSource struct {
	ch chan string
}

func (s *stubSource) Subscribe(jobID string) <-chan string { return s.ch }

func (s *stubSource) Unsubscribe(jobID string, _ <-chan string) {}

func newStreamServer(t *testing.T, source ProgressSource) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/campaigns/stream", NewStream(source, nil, zap.NewNop()).Handler())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/campaigns/stream"
}

func TestStreamHandler(t *testing.T) {
	t.Run("事件按序推送，流结束后正常关闭", func(t *testing.T) {
		lines := []string{"round 1", "sent alice@example.org", "campaign finished"}
		src := &stubSource{ch: make(chan string, len(lines))}
		for _, line := range lines {
			src.ch <- line
		}
		close(src.ch)

		srv := newStreamServer(t, src)
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?jobId=job-1", nil)
		require.NoError(t, err)
		defer conn.Close()

		for _, want := range lines {
			kind, payload, err := conn.ReadMessage()
			require.NoError(t, err)
			assert.Equal(t, websocket.TextMessage, kind)
			assert.Equal(t, `"`+want+`"`, string(payload))
		}

		// 通道关闭后服务端发送正常关闭帧，原因不区分结束方式
		_, _, err = conn.ReadMessage()
		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr)
		assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
		assert.Equal(t, "stream closed", closeErr.Text)
	})

	t.Run("缺少 jobId 拒绝连接", func(t *testing.T) {
		srv := newStreamServer(t, &stubSource{ch: make(chan string)})

		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
