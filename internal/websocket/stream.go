package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 连接读写超时参数
const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// ProgressSource 进度事件来源
//
// 由 dispatch.Feed 满足: 订阅返回一条在运行结束时关闭的
// 有序事件通道。
type ProgressSource interface {
	Subscribe(jobID string) <-chan string
	Unsubscribe(jobID string, ch <-chan string)
}

// upgraderFactory 创建带有 Origin 验证的 WebSocket 升级器
func upgraderFactory(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			for _, origin := range allowedOrigins {
				if origin == "*" {
					return true
				}
			}

			requestOrigin := r.Header.Get("Origin")
			if requestOrigin == "" {
				// 没有 Origin 视为同源请求
				return true
			}

			for _, origin := range allowedOrigins {
				if requestOrigin == origin {
					return true
				}
			}
			return false
		},
	}
}

// Stream 活动进度的 WebSocket 推送端
type Stream struct {
	source         ProgressSource
	allowedOrigins []string
	log            *zap.Logger
}

// NewStream 创建进度推送端
func NewStream(source ProgressSource, allowedOrigins []string, log *zap.Logger) *Stream {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Stream{
		source:         source,
		allowedOrigins: allowedOrigins,
		log:            log,
	}
}

// Handler 处理 GET /v1/campaigns/stream?jobId= 的订阅连接
//
// 每条进度事件以 JSON 编码的字符串作为一条文本帧推送，
// 运行结束时服务端主动关闭连接。同一运行同时只保留一个
// 订阅者，新连接会替换旧连接。
func (s *Stream) Handler() gin.HandlerFunc {
	upgrader := upgraderFactory(s.allowedOrigins)

	return func(c *gin.Context) {
		jobID := c.Query("jobId")
		if jobID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "jobId is required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			s.log.Error("failed to upgrade connection",
				zap.Error(err),
				zap.String("origin", c.Request.Header.Get("Origin")),
				zap.String("remote_addr", c.ClientIP()))
			return
		}

		events := s.source.Subscribe(jobID)
		s.log.Info("progress subscriber attached",
			zap.String("job_id", jobID),
			zap.String("remote_addr", c.ClientIP()))

		go s.writePump(conn, jobID, events)
		go s.readPump(conn, jobID, events)
	}
}

// writePump 将进度事件推送给订阅者
func (s *Stream) writePump(conn *websocket.Conn, jobID string, events <-chan string) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case line, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// 运行结束、订阅被替换或消费过慢被断开，结束推送
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream closed"))
				return
			}

			payload, err := json.Marshal(line)
			if err != nil {
				s.log.Error("failed to marshal progress line", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.log.Warn("progress push failed",
					zap.String("job_id", jobID), zap.Error(err))
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只用于发现订阅者断开
//
// 订阅者断开后取消订阅，运行本身继续执行。
func (s *Stream) readPump(conn *websocket.Conn, jobID string, events <-chan string) {
	defer func() {
		s.source.Unsubscribe(jobID, events)
		conn.Close()
		s.log.Info("progress subscriber detached", zap.String("job_id", jobID))
	}()

	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read error",
					zap.String("job_id", jobID), zap.Error(err))
			}
			return
		}
	}
}
