package domain

import "time"

// DefaultTitle 是新用户的默认称号。
const DefaultTitle = "debutant"

// User 表示一个玩家账号。账号的创建与认证由外部服务负责，这里只读取名字并修改分数。
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"type:varchar(191);uniqueIndex:idx_username;not null"`
	Score     int       `gorm:"not null;default:0"`
	Title     string    `gorm:"type:varchar(50);not null;default:debutant"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Level 定义分数阈值对应的称号。
type Level struct {
	ID    uint   `gorm:"primaryKey"`
	Score int    `gorm:"not null;index"`
	Title string `gorm:"type:varchar(50);not null"`
}
