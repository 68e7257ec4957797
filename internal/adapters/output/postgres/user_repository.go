package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"file-utility-bot/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository struct - Secondary/Driven adapter for the user registry on PostgreSQL
type UserRepository struct {
	dbGorm *gorm.DB
}

// NewUserRepository func - Creates new PostgreSQL user repository and migrates its table
func NewUserRepository(dbGorm *gorm.DB) (*UserRepository, error) {
	logrus.Info("Migrate database ...")
	if err := domain.MigrateDatabase(dbGorm); err != nil {
		return nil, fmt.Errorf("failed to migrate users table: %w", err)
	}
	return &UserRepository{
		dbGorm: dbGorm,
	}, nil
}

// Register func - Inserts id unless already present
func (p *UserRepository) Register(ctx context.Context, id int64) error {
	now := time.Now()
	user := domain.BotUser{UserID: id, CreatedAt: &now}
	err := p.dbGorm.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&user).Error
	if err != nil {
		logrus.Errorln(err)
		return fmt.Errorf("failed to register user %d: %w", id, err)
	}
	return nil
}

// ListAll func - Returns every registered id in ascending order
func (p *UserRepository) ListAll(ctx context.Context) ([]int64, error) {
	var (
		user domain.BotUser
		ids  []int64
	)
	tx := p.dbGorm.WithContext(ctx).
		Table(user.TableName()).
		Order("user_id ASC").
		Pluck("user_id", &ids)
	if tx.Error != nil {
		logrus.Errorln(tx.Error)
		return nil, fmt.Errorf("failed to list users: %w", tx.Error)
	}
	if ids == nil {
		ids = make([]int64, 0)
	}
	return ids, nil
}

// Ping func - Checks the database connection
func (p *UserRepository) Ping(ctx context.Context) error {
	if p.dbGorm == nil {
		return errors.New("database is not connected")
	}
	sqlDB, err := p.dbGorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
