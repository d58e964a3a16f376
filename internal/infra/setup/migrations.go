package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"guess-who-arena/internal/domain"
)

// DefaultLevels 是等级表为空时写入的默认称号阶梯
var DefaultLevels = []domain.Level{
	{Score: 0, Title: domain.DefaultTitle},
	{Score: 40, Title: "apprenti"},
	{Score: 120, Title: "detective"},
	{Score: 300, Title: "inspecteur"},
	{Score: 600, Title: "legende"},
}

// MigrateDB 迁移所有表，并在等级表为空时写入默认等级
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	err := db.AutoMigrate(
		&domain.User{},
		&domain.Level{},
		&domain.Deck{},
		&domain.Image{},
		&domain.Room{},
		&domain.RoomImage{},
	)
	if err != nil {
		logrus.Errorf("Failed to auto-migrate tables: %v", err)
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	if err := seedLevels(db); err != nil {
		return fmt.Errorf("failed to seed levels: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

func seedLevels(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.Level{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	levels := make([]domain.Level, len(DefaultLevels))
	copy(levels, DefaultLevels)
	if err := db.Create(&levels).Error; err != nil {
		return err
	}
	logrus.Infof("Seeded %d default levels", len(levels))
	return nil
}
