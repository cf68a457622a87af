package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig `mapstructure:"database"` // PostgreSQL配置
	Ingest   IngestConfig   `mapstructure:"ingest"`   // 入库引擎配置
	Log      LogConfig      `mapstructure:"log"`      // 日志配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN（URL形式）
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	AutoMigrate     bool          `mapstructure:"auto_migrate"`      // 启动时自动建表
}

// IngestConfig 爬虫快照入库配置
type IngestConfig struct {
	Secret                string `mapstructure:"secret"`                   // Bearer Token 共享密钥
	MaxBodyBytes          int64  `mapstructure:"max_body_bytes"`           // 请求体上限
	LegacyPairFallback    bool   `mapstructure:"legacy_pair_fallback"`     // 是否按反序选手对兜底查找旧数据
	NormalizePairsOnStart bool   `mapstructure:"normalize_pairs_on_start"` // 启动时执行一次选手对规范化迁移

	// 以下两项默认关闭，开启后对应赛事本次不推断取消
	KeepOnSkippedFight bool `mapstructure:"keep_on_skipped_fight"` // 赛事有对阵因引用缺失被跳过
	KeepOnEmptyCard    bool `mapstructure:"keep_on_empty_card"`    // 赛事本次一场对阵都没观测到且未标记取消
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug/info/warn/error
	Format string `mapstructure:"format"` // text/json
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	setDefaults(viper.GetViper())
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadConfigFrom 从指定目录读取 config.yaml，使用独立 viper 实例（测试与工具用）
func LoadConfigFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("ingest.max_body_bytes", 32<<20)
	v.SetDefault("ingest.legacy_pair_fallback", true)
	v.SetDefault("ingest.keep_on_skipped_fight", false)
	v.SetDefault("ingest.keep_on_empty_card", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("INGEST_API_SECRET"); v != "" {
		cfg.Ingest.Secret = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate 校验启动必需项
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Ingest.Secret) == "" {
		errs = append(errs, errors.New("ingest.secret 不能为空（可通过 INGEST_API_SECRET 设置）"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port 非法: %d", c.Server.Port))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn 不能为空"))
	}
	return errors.Join(errs...)
}
