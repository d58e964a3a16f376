package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"guess-who-arena/internal/infra/setup"
	"guess-who-arena/internal/service"
)

// Config 存储从环境变量或 .env 文件加载的配置
type Config struct {
	DB              setup.DBOptions
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	JWTSecret       string
	WSAuthRequired  bool
	AllowedOrigins  []string
	ServerPort      string
	LogLevel        string
	AppEnv          string // development / production
	KeyPrefix       string // Redis Key 前缀
	RateLimitMax    int
	RateLimitWindow time.Duration
	ImageCacheTTL   time.Duration
	SweepInterval   time.Duration // 0 表示不清理孤儿房间
	OrphanAge       time.Duration
	Game            service.CoordinatorConfig
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	// .env 文件可选
	_ = godotenv.Load()

	game := service.DefaultCoordinatorConfig()
	cfg := &Config{
		DB: setup.DBOptions{
			Driver:     getEnv("DB_DRIVER", setup.DriverMySQL),
			User:       os.Getenv("DB_USER"),
			Password:   os.Getenv("DB_PASSWORD"),
			Host:       os.Getenv("DB_HOST"),
			Port:       os.Getenv("DB_PORT"),
			Name:       os.Getenv("DB_NAME"),
			SQLitePath: getEnv("SQLITE_PATH", "guess_who.db"),
		},
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AppEnv:         getEnv("APP_ENV", "development"),
		KeyPrefix:      getEnv("REDIS_KEY_PREFIX", "gw:"),
		AllowedOrigins: splitList(os.Getenv("WS_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.WSAuthRequired, err = getBool("WS_AUTH_REQUIRED", false); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = getInt("RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", time.Second); err != nil {
		return nil, err
	}
	if cfg.ImageCacheTTL, err = getDuration("IMAGE_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("ROOM_SWEEP_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OrphanAge, err = getDuration("ROOM_ORPHAN_AGE", time.Hour); err != nil {
		return nil, err
	}
	if game.Reward, err = getInt("GAME_REWARD", game.Reward); err != nil {
		return nil, err
	}
	if game.CreateMinImages, err = getInt("CREATE_MIN_IMAGES", game.CreateMinImages); err != nil {
		return nil, err
	}
	if game.StartMinImages, err = getInt("START_MIN_IMAGES", game.StartMinImages); err != nil {
		return nil, err
	}
	cfg.Game = game
	cfg.DB.Debug = cfg.AppEnv != "production" && cfg.LogLevel == "debug"

	// --- 检查 ---
	switch cfg.DB.Driver {
	case setup.DriverMySQL, setup.DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER '%s'", cfg.DB.Driver)
	}
	if cfg.WSAuthRequired && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set when WS_AUTH_REQUIRED is true")
	}
	if cfg.Game.Reward <= 0 {
		return nil, fmt.Errorf("GAME_REWARD must be positive")
	}
	if cfg.RateLimitMax <= 0 || cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s '%s': %w", key, v, err)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", key, v, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NewLogger 按配置创建 logrus Logger，并设为全局 logger 的格式和级别
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	var formatter logrus.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if cfg.AppEnv == "production" {
		formatter = &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetFormatter(formatter)
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	// 包内代码通过 logrus 的全局 logger 记录
	logrus.SetFormatter(formatter)
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
	return log
}
