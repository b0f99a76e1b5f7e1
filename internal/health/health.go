package health

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"mailblast/backend/internal/storage"
)

// 健康检查阈值
const maxGoroutines = 2000

// Checker 健康检查器
type Checker struct {
	health healthcheck.Handler
	store  storage.Store
	logger *zap.Logger
}

// NewChecker 创建健康检查器
func NewChecker(store storage.Store, logger *zap.Logger) *Checker {
	c := &Checker{
		health: healthcheck.NewHandler(),
		store:  store,
		logger: logger,
	}
	c.addChecks()
	return c
}

// addChecks 注册各项检查
func (c *Checker) addChecks() {
	// 存储连接检查
	c.health.AddLivenessCheck("storage", func() error {
		return c.store.Health()
	})

	// 协程泄漏检查: 卡死的投递协程会让数量持续增长
	c.health.AddLivenessCheck("goroutines", func() error {
		if n := runtime.NumGoroutine(); n > maxGoroutines {
			return fmt.Errorf("too many goroutines: %d", n)
		}
		return nil
	})
}

// Handler 返回健康检查处理器（/live 和 /ready）
func (c *Checker) Handler() http.Handler {
	return c.health
}

// Snapshot 返回各项检查的当前状态
func (c *Checker) Snapshot() map[string]string {
	results := make(map[string]string)

	if err := c.store.Health(); err != nil {
		results["storage"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["storage"] = "OK"
	}
	results["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())
	results["timestamp"] = time.Now().Format(time.RFC3339)

	return results
}
