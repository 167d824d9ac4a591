package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Env       string `yaml:"env"`
	AppSecret string `yaml:"app_secret"`
	Port      string `yaml:"port"`
	SiteName  string `yaml:"site_name"`
	SiteUrl   string `yaml:"site_url"`
	LogLevel  string `yaml:"log_level"`

	RatingsAPIURL     string        `yaml:"ratings_api_url"`
	RatingsAPITimeout time.Duration `yaml:"ratings_api_timeout"`

	TelegramBotToken string        `yaml:"telegram_bot_token"`
	InitDataMaxAge   time.Duration `yaml:"init_data_max_age"`
	JWTExpiry        time.Duration `yaml:"jwt_expiry"`

	ViewTTL           time.Duration `yaml:"view_ttl"`
	ViewSweepInterval time.Duration `yaml:"view_sweep_interval"`

	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Env:               "development",
		AppSecret:         defaultSecret,
		Port:              "5005",
		SiteName:          "My Ratings",
		SiteUrl:           "http://localhost:5005",
		LogLevel:          "info",
		RatingsAPIURL:     "https://simple-app-murex.vercel.app",
		RatingsAPITimeout: 15 * time.Second,
		InitDataMaxAge:    24 * time.Hour,
		JWTExpiry:         72 * time.Hour,
		ViewTTL:           30 * time.Minute,
		ViewSweepInterval: 5 * time.Minute,
		RateLimit:         10,
		RateBurst:         20,
	}
}

// Load 加载配置
// 顺序：默认值 -> CONFIG_FILE 指定的 YAML 文件 -> 环境变量
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.AppSecret = getEnv("APP_SECRET", getEnv("JWT_SECRET", cfg.AppSecret))
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.SiteName = getEnv("SITE_NAME", cfg.SiteName)
	cfg.SiteUrl = getEnv("SITE_URL", cfg.SiteUrl)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.RatingsAPIURL = getEnv("RATINGS_API_URL", cfg.RatingsAPIURL)
	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)

	var err error
	if cfg.RatingsAPITimeout, err = getDuration("RATINGS_API_TIMEOUT", cfg.RatingsAPITimeout); err != nil {
		return nil, err
	}
	if cfg.InitDataMaxAge, err = getDuration("INIT_DATA_MAX_AGE", cfg.InitDataMaxAge); err != nil {
		return nil, err
	}
	if cfg.ViewTTL, err = getDuration("VIEW_TTL", cfg.ViewTTL); err != nil {
		return nil, err
	}
	if cfg.ViewSweepInterval, err = getDuration("VIEW_SWEEP_INTERVAL", cfg.ViewSweepInterval); err != nil {
		return nil, err
	}
	if v := os.Getenv("JWT_EXPIRY_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("JWT_EXPIRY_HOURS 无效: %w", err)
		}
		cfg.JWTExpiry = time.Duration(hours) * time.Hour
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if cfg.RateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("RATE_LIMIT 无效: %w", err)
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if cfg.RateBurst, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("RATE_BURST 无效: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.IsProduction() && cfg.AppSecret == defaultSecret {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}
	if cfg.IsProduction() && cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("生产环境必须设置 TELEGRAM_BOT_TOKEN")
	}

	return cfg, nil
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// validate 时长类配置必须为正数，INIT_DATA_MAX_AGE 为 0 表示不检查
func (c *Config) validate() error {
	durations := []struct {
		key string
		d   time.Duration
	}{
		{"RATINGS_API_TIMEOUT", c.RatingsAPITimeout},
		{"VIEW_TTL", c.ViewTTL},
		{"VIEW_SWEEP_INTERVAL", c.ViewSweepInterval},
		{"JWT_EXPIRY_HOURS", c.JWTExpiry},
	}
	for _, item := range durations {
		if item.d <= 0 {
			return fmt.Errorf("%s 必须大于 0，当前为 %s", item.key, item.d)
		}
	}
	if c.InitDataMaxAge < 0 {
		return fmt.Errorf("INIT_DATA_MAX_AGE 不能为负数，当前为 %s", c.InitDataMaxAge)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s 无效: %w", key, err)
	}
	return d, nil
}
