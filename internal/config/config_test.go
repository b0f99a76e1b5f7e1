package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configEnvKeys 列出测试中会触碰的所有环境变量
var configEnvKeys = []string{
	"MAILBLAST_SERVER_HOST",
	"MAILBLAST_SERVER_PORT",
	"MAILBLAST_DISPATCH_DEFAULT_BRAND",
	"MAILBLAST_DISPATCH_DEFAULT_MIN_DELAY",
	"MAILBLAST_DISPATCH_DEFAULT_MAX_DELAY",
	"MAILBLAST_DISPATCH_PAUSE_POLL",
	"MAILBLAST_DISPATCH_MAX_ROUNDS",
	"MAILBLAST_MAILER_DIAL_TIMEOUT",
	"MAILBLAST_MAILER_SEND_TIMEOUT",
	"MAILBLAST_CORS_ALLOWED_ORIGINS",
	"MAILBLAST_LOG_LEVEL",
	"MAILBLAST_DATABASE_TYPE",
	"MAILBLAST_DATABASE_DSN",
}

// withCleanEnv 保存并清空相关环境变量，测试结束后恢复
func withCleanEnv(t *testing.T) {
	t.Helper()
	saved := make(map[string]string)
	for _, key := range configEnvKeys {
		if value, ok := os.LookupEnv(key); ok {
			saved[key] = value
		}
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for _, key := range configEnvKeys {
			os.Unsetenv(key)
		}
		for key, value := range saved {
			os.Setenv(key, value)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("默认配置", func(t *testing.T) {
		withCleanEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "Your Brand", cfg.Dispatch.DefaultBrand)
		assert.Equal(t, 1, cfg.Dispatch.DefaultMinDelay)
		assert.Equal(t, 5, cfg.Dispatch.DefaultMaxDelay)
		assert.Equal(t, time.Second, cfg.Dispatch.PausePoll)
		assert.Equal(t, 0, cfg.Dispatch.MaxRounds)
		assert.Equal(t, 15*time.Second, cfg.Mailer.DialTimeout)
		assert.Equal(t, 30*time.Second, cfg.Mailer.SendTimeout)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Empty(t, cfg.Database.Type)
	})

	t.Run("环境变量覆盖默认值", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("MAILBLAST_SERVER_PORT", "9090")
		os.Setenv("MAILBLAST_DISPATCH_DEFAULT_BRAND", "Acme Mail")
		os.Setenv("MAILBLAST_DISPATCH_PAUSE_POLL", "500ms")
		os.Setenv("MAILBLAST_CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
		os.Setenv("MAILBLAST_LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "Acme Mail", cfg.Dispatch.DefaultBrand)
		assert.Equal(t, 500*time.Millisecond, cfg.Dispatch.PausePoll)
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("非法的轮询间隔", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("MAILBLAST_DISPATCH_PAUSE_POLL", "not-a-duration")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("最小延迟大于最大延迟", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("MAILBLAST_DISPATCH_DEFAULT_MIN_DELAY", "10")
		os.Setenv("MAILBLAST_DISPATCH_DEFAULT_MAX_DELAY", "3")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("不支持的数据库类型", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("MAILBLAST_DATABASE_TYPE", "oracle")
		os.Setenv("MAILBLAST_DATABASE_DSN", "whatever")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("数据库类型已设置但缺少连接串", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("MAILBLAST_DATABASE_TYPE", "postgres")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("数据库配置完整", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("MAILBLAST_DATABASE_TYPE", "mysql")
		os.Setenv("MAILBLAST_DATABASE_DSN", "user:pass@tcp(localhost:3306)/mailblast")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "mysql", cfg.Database.Type)
		assert.Equal(t, "user:pass@tcp(localhost:3306)/mailblast", cfg.Database.DSN)
	})
}

func TestParseList(t *testing.T) {
	t.Run("逗号分隔并去除空白", func(t *testing.T) {
		items := parseList(" a ,b, ,c ")
		assert.Equal(t, []string{"a", "b", "c"}, items)
	})

	t.Run("空字符串返回空列表", func(t *testing.T) {
		assert.Empty(t, parseList(""))
	})
}
