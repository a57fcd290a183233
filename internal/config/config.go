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

// StorageConfig 定义记录存储后端配置
type StorageConfig struct {
	Type            string        // 存储类型: "filesystem"（默认）、"memory"、"mysql"、"postgres"
	Path            string        // filesystem 存储根目录，默认 "./data/records"
	DSN             string        // SQL 存储连接字符串
	MaxOpenConns    int           // SQL 最大打开连接数，默认 25
	MaxIdleConns    int           // SQL 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // SQL 连接最大生命周期，默认 5 分钟
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空表示仅输出到 stdout
}

// RateLimitConfig 定义按 IP 的请求限流配置
type RateLimitConfig struct {
	Enabled bool    // 是否启用限流
	RPS     float64 // 每秒允许的请求数，默认 50
	Burst   int     // 突发容量，默认 100
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	CORS      CORSConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: RECORDVAULT_
// 例如: RECORDVAULT_SERVER_PORT, RECORDVAULT_STORAGE_PATH
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("recordvault")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("storage.type", "filesystem")
	viper.SetDefault("storage.path", "./data/records")
	viper.SetDefault("storage.dsn", "")
	viper.SetDefault("storage.max_open_conns", 25)
	viper.SetDefault("storage.max_idle_conns", 5)
	viper.SetDefault("storage.conn_max_lifetime", "5m")
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")
	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.rps", 50.0)
	viper.SetDefault("ratelimit.burst", 100)

	storageType := strings.ToLower(viper.GetString("storage.type"))
	switch storageType {
	case "filesystem", "memory", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("invalid storage.type: %q (supported: filesystem, memory, mysql, postgres)", storageType)
	}

	if (storageType == "mysql" || storageType == "postgres") && viper.GetString("storage.dsn") == "" {
		return nil, fmt.Errorf("storage.dsn is required for storage.type=%s", storageType)
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("storage.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	rps := viper.GetFloat64("ratelimit.rps")
	if rps <= 0 {
		rps = 50
	}
	burst := viper.GetInt("ratelimit.burst")
	if burst <= 0 {
		burst = 100
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Storage: StorageConfig{
			Type:            storageType,
			Path:            viper.GetString("storage.path"),
			DSN:             viper.GetString("storage.dsn"),
			MaxOpenConns:    viper.GetInt("storage.max_open_conns"),
			MaxIdleConns:    viper.GetInt("storage.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
		},
		RateLimit: RateLimitConfig{
			Enabled: viper.GetBool("ratelimit.enabled"),
			RPS:     rps,
			Burst:   burst,
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片，已去除空白字符。
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
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env（用于从子目录运行的情况）
//
// 如果文件不存在，静默失败；已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
