package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
// 发布工作流服务只依赖远端租房开放平台 API 和少量本地资源，
// 配置项保持最小集合，全部可通过环境变量覆盖 (前缀 ZUFANG_)
type Config struct {
	// HTTP 服务
	ListenAddr string `mapstructure:"listen_addr"`

	// 租房开放平台 API
	APIBaseURL string        `mapstructure:"api_base_url"`
	APIKey     string        `mapstructure:"api_key"`
	APITimeout time.Duration `mapstructure:"api_timeout"`
	// 图片批量上传比普通接口慢得多，单独给超时
	UploadTimeout time.Duration `mapstructure:"upload_timeout"`

	// 发布费 (单位: 分)
	PostingFee int64 `mapstructure:"posting_fee"`

	// 媒体摄取管道的临时文件缓存目录
	TempCacheDir string `mapstructure:"temp_cache_dir"`

	// 本地事件日志 (sqlite)
	JournalDSN string `mapstructure:"journal_dsn"`

	// 会话空闲过期时间
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// Load 加载配置
// 优先级: 环境变量 > 配置文件 (可选) > 默认值
func Load() (*Config, error) {
	v := viper.New()

	// 默认值
	v.SetDefault("listen_addr", ":8090")
	v.SetDefault("api_base_url", "https://open.zufang.example.com/v1")
	v.SetDefault("api_timeout", 20*time.Second)
	v.SetDefault("upload_timeout", 60*time.Second)
	v.SetDefault("posting_fee", 50000)
	v.SetDefault("temp_cache_dir", "./tmp/upload_cache")
	v.SetDefault("journal_dsn", "./data/workflow_journal.db")
	v.SetDefault("session_ttl", 30*time.Minute)

	// 环境变量: ZUFANG_API_BASE_URL 等
	v.SetEnvPrefix("ZUFANG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 配置文件可选，不存在不报错
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./conf")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %v", err)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = v.GetString("api_key")
	}

	if cfg.PostingFee <= 0 {
		return nil, fmt.Errorf("posting_fee 必须为正数: %d", cfg.PostingFee)
	}

	return &cfg, nil
}
