package domain

import "time"

// Image 表示一张可作为角色的游戏图片。
// 系统图片只有 Category；玩家上传的图片带有 UserID，可能归属于某个卡组。
type Image struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Category string `gorm:"size:100;index" json:"category,omitempty"`
	URL      string `gorm:"type:text;not null" json:"url"`
	Name     string `gorm:"size:100;not null" json:"name"`
	DeckID   *uint  `gorm:"index" json:"deckId,omitempty"`
	UserID   *uint  `gorm:"index" json:"-"`
}

// Deck 是玩家保存的一组图片。
type Deck struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Name      string    `gorm:"size:50;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
