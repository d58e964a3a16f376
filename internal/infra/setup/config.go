package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 支持的数据库驱动
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DBOptions 描述数据库连接参数
type DBOptions struct {
	Driver     string // mysql (默认) 或 sqlite
	User       string
	Password   string
	Host       string
	Port       string
	Name       string
	SQLitePath string // sqlite 模式下的文件路径或 DSN
	Debug      bool   // 是否打印 SQL
}

// InitDB 根据驱动初始化数据库连接
func InitDB(opts DBOptions) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if opts.Debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case "", DriverMySQL:
		dsn, err := BuildMySQLDSN(opts)
		if err != nil {
			return nil, err
		}
		dialector = mysql.Open(dsn)
	case DriverSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = "guess_who.db"
		}
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER '%s'", opts.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database (%s): %w", opts.Driver, err)
	}

	sqlDB, err := db.DB() // 获取底层的 *sql.DB 对象
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if opts.Driver == DriverSQLite {
		// SQLite 只允许一个写连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	logrus.WithField("driver", dialector.Name()).Info("Database connected")
	return db, nil
}

// BuildMySQLDSN 构建 MySQL 连接字符串，用户名和密码必须显式配置
func BuildMySQLDSN(opts DBOptions) (string, error) {
	if opts.User == "" {
		return "", fmt.Errorf("DB_USER environment variable not set")
	}
	if opts.Password == "" {
		return "", fmt.Errorf("DB_PASSWORD environment variable not set")
	}
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.Port
	if port == "" {
		port = "3306"
	}
	name := opts.Name
	if name == "" {
		name = "guess_who"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		opts.User, opts.Password, host, port, name), nil
}

// InitRedis 初始化 Redis 连接并 Ping 检查
func InitRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 5,
		MaxConnAge:   30 * time.Minute,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	logrus.WithField("addr", addr).Info("Redis connected")
	return client, nil
}
