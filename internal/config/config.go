package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// DispatchConfig 定义活动调度引擎的配置
type DispatchConfig struct {
	DefaultBrand    string        // 默认发件人显示名称
	DefaultMinDelay int           // 每次投递后的最小随机等待秒数
	DefaultMaxDelay int           // 每次投递后的最大随机等待秒数
	PausePoll       time.Duration // 暂停状态的轮询间隔，默认 1s
	MaxRounds       int           // 重试轮次上限，0 表示不限制
}

// MailerConfig 定义出站 SMTP 客户端配置
type MailerConfig struct {
	DialTimeout   time.Duration // 建立连接超时
	SendTimeout   time.Duration // 单封邮件提交超时
	MaxPerSecond  float64       // 全局出站速率上限（连接/秒）
	MaxBurst      int           // 速率限制突发量
	SkipTLSVerify bool          // 跳过证书校验（仅用于自建测试 SMTP）
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空仅输出到控制台
}

// DatabaseConfig 定义数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string        // 数据库类型: "mysql" 或 "postgres"，留空使用内存存储
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server   ServerConfig   // HTTP 服务器配置
	Dispatch DispatchConfig // 调度引擎配置
	Mailer   MailerConfig   // 出站 SMTP 配置
	CORS     CORSConfig     // 跨域配置
	Log      LogConfig      // 日志配置
	Database DatabaseConfig // 数据库配置
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: MAILBLAST_
// 例如: MAILBLAST_SERVER_PORT, MAILBLAST_DATABASE_DSN
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("mailblast")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("dispatch.default_brand", "Your Brand")
	viper.SetDefault("dispatch.default_min_delay", 1)
	viper.SetDefault("dispatch.default_max_delay", 5)
	viper.SetDefault("dispatch.pause_poll", "1s")
	viper.SetDefault("dispatch.max_rounds", 0)
	viper.SetDefault("mailer.dial_timeout", "15s")
	viper.SetDefault("mailer.send_timeout", "30s")
	viper.SetDefault("mailer.max_per_second", 5)
	viper.SetDefault("mailer.max_burst", 1)
	viper.SetDefault("mailer.skip_tls_verify", false)
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")
	viper.SetDefault("database.type", "") // 默认为空，使用内存存储
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")

	pausePoll, err := time.ParseDuration(viper.GetString("dispatch.pause_poll"))
	if err != nil {
		return nil, fmt.Errorf("invalid dispatch.pause_poll: %w", err)
	}

	minDelay := viper.GetInt("dispatch.default_min_delay")
	maxDelay := viper.GetInt("dispatch.default_max_delay")
	if minDelay < 0 || maxDelay < 0 {
		return nil, fmt.Errorf("dispatch delays must not be negative")
	}
	if minDelay > maxDelay {
		return nil, fmt.Errorf("dispatch.default_min_delay must not exceed dispatch.default_max_delay")
	}

	maxRounds := viper.GetInt("dispatch.max_rounds")
	if maxRounds < 0 {
		return nil, fmt.Errorf("dispatch.max_rounds must not be negative")
	}

	dialTimeout, err := time.ParseDuration(viper.GetString("mailer.dial_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid mailer.dial_timeout: %w", err)
	}

	sendTimeout, err := time.ParseDuration(viper.GetString("mailer.send_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid mailer.send_timeout: %w", err)
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	dbType := viper.GetString("database.type")
	if dbType != "" && dbType != "mysql" && dbType != "postgres" {
		return nil, fmt.Errorf("unsupported database.type: %s (supported: mysql, postgres)", dbType)
	}
	if dbType != "" && viper.GetString("database.dsn") == "" {
		return nil, fmt.Errorf("database.dsn is required when database.type is set")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Dispatch: DispatchConfig{
			DefaultBrand:    viper.GetString("dispatch.default_brand"),
			DefaultMinDelay: minDelay,
			DefaultMaxDelay: maxDelay,
			PausePoll:       pausePoll,
			MaxRounds:       maxRounds,
		},
		Mailer: MailerConfig{
			DialTimeout:   dialTimeout,
			SendTimeout:   sendTimeout,
			MaxPerSecond:  viper.GetFloat64("mailer.max_per_second"),
			MaxBurst:      viper.GetInt("mailer.max_burst"),
			SkipTLSVerify: viper.GetBool("mailer.skip_tls_verify"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
		},
		Database: DatabaseConfig{
			Type:            dbType,
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 依次尝试当前目录与上级目录，找到第一个即停止。
func loadEnvFile() {
	candidates := []string{".env"}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, "..", ".env"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}
