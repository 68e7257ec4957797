package domain

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// BotUser struct - A sender that ran /start at least once
type BotUser struct {
	UserID    int64      `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt *time.Time `gorm:"type:timestamp"`
}

// TableName func
func (u *BotUser) TableName() string {
	return "filebot_users"
}

// MigrateDatabase func - Auto-migrate database schema
func MigrateDatabase(db *gorm.DB) error {
	if db == nil {
		return errors.New("an error when connect database")
	}

	return db.AutoMigrate(&BotUser{})
}
