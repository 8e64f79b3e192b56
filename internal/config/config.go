package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Memory   MemoryConfig
	Auth     AuthConfig
	Log      LogConfig
	CORS     CORSConfig
	Safety   SafetyConfig
}

// Load 从环境变量（以及可选的 CONFIG_FILE）加载配置。
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	server, err := loadServerConfig(v)
	if err != nil {
		return nil, err
	}

	database, err := loadDatabaseConfig(v)
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig(v)
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig(v)
	if err != nil {
		return nil, err
	}

	safety, err := LoadSafety(getString(v, "safety_table_path"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Database: database,
		Memory:   loadMemoryConfig(v),
		Auth:     auth,
		Log:      logCfg,
		CORS:     CORSConfig{AllowedOrigins: getList(v, "cors_allowed_origins")},
		Safety:   safety,
	}, nil
}

// newViper 按 环境变量 > 配置文件 > 默认值 的优先级组装配置源。
func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_dsn", "file:echo.db")
	v.SetDefault("memory_path", "memory.json")
	v.SetDefault("password_hash_cost", "12")
	v.SetDefault("auth_token_ttl", "24h")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("cors_allowed_origins", "*")

	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read CONFIG_FILE %q: %w", path, err)
		}
	}
	return v, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(v *viper.Viper) (ServerConfig, error) {
	port := getString(v, "port")
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// DatabaseConfig 描述账户数据库。
type DatabaseConfig struct {
	Driver string
	DSN    string
}

func loadDatabaseConfig(v *viper.Viper) (DatabaseConfig, error) {
	driver := strings.ToLower(getString(v, "database_driver"))
	switch driver {
	case "sqlite", "pgx":
	case "postgres":
		driver = "pgx"
	default:
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_DRIVER value %q: want sqlite or pgx", driver)
	}
	return DatabaseConfig{Driver: driver, DSN: getString(v, "database_dsn")}, nil
}

// MemoryConfig 描述会话记忆的持久化位置：文件路径、s3://bucket/key 或 :memory:。
type MemoryConfig struct {
	Path        string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

func loadMemoryConfig(v *viper.Viper) MemoryConfig {
	path := getString(v, "memory_path")
	if path == "" {
		path = "memory.json"
	}
	return MemoryConfig{
		Path:        path,
		S3Region:    getString(v, "memory_s3_region"),
		S3Endpoint:  getString(v, "memory_s3_endpoint"),
		S3AccessKey: getString(v, "memory_s3_access_key"),
		S3SecretKey: getString(v, "memory_s3_secret_key"),
	}
}

// AuthConfig 描述密码哈希与访问令牌。
type AuthConfig struct {
	PasswordCost int
	TokenSecret  string
	TokenTTL     time.Duration
}

func loadAuthConfig(v *viper.Viper) (AuthConfig, error) {
	cost, err := parseIntValue(v, "password_hash_cost", 12)
	if err != nil {
		return AuthConfig{}, err
	}

	ttl := 24 * time.Hour
	if raw := getString(v, "auth_token_ttl"); raw != "" {
		ttl, err = time.ParseDuration(raw)
		if err != nil {
			return AuthConfig{}, fmt.Errorf("invalid AUTH_TOKEN_TTL value %q: %w", raw, err)
		}
		if ttl <= 0 {
			return AuthConfig{}, fmt.Errorf("invalid AUTH_TOKEN_TTL value %q: must be positive", raw)
		}
	}

	return AuthConfig{
		PasswordCost: cost,
		TokenSecret:  getString(v, "auth_token_secret"),
		TokenTTL:     ttl,
	}, nil
}

// LogConfig 描述日志级别与输出格式（text 或 json）。
type LogConfig struct {
	Level  slog.Level
	Format string
}

func loadLogConfig(v *viper.Viper) (LogConfig, error) {
	var level slog.Level
	raw := getString(v, "log_level")
	if raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q: %w", raw, err)
		}
	}

	format := strings.ToLower(getString(v, "log_format"))
	switch format {
	case "":
		format = "text"
	case "text", "json":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value %q: want text or json", format)
	}
	return LogConfig{Level: level, Format: format}, nil
}

// CORSConfig 描述允许的跨域来源。
type CORSConfig struct {
	AllowedOrigins []string
}

func getString(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

// getList 同时接受逗号分隔的字符串（环境变量）和配置文件中的数组。
func getList(v *viper.Viper, key string) []string {
	var items []string
	switch raw := v.Get(key).(type) {
	case string:
		items = strings.Split(raw, ",")
	default:
		items = v.GetStringSlice(key)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseIntValue(v *viper.Viper, key string, defaultValue int) (int, error) {
	raw := getString(v, key)
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", strings.ToUpper(key), raw, err)
	}
	return val, nil
}
