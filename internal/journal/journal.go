// Package journal keeps an append-only log of the moves a dev server relayed.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrClosed = errors.New("journal closed")

const (
	ActionPlace  = "place"
	ActionPickup = "pickup"
	ActionFinish = "finish"
)

type Move struct {
	ID        uint   `gorm:"primaryKey"`
	Room      string `gorm:"index;size:32"`
	User      string `gorm:"size:64"`
	Action    string `gorm:"size:16"`
	Kind      string `gorm:"size:32"`
	X         int
	Y         int
	Z         int
	CreatedAt time.Time
}

type Journal struct {
	db *gorm.DB
}

// Open connects to dsn. A postgres:// or postgresql:// URL selects postgres;
// anything else is handed to sqlite.
func Open(dsn string) (*Journal, error) {
	var d gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		d = postgres.Open(dsn)
	} else {
		d = sqlite.Open(dsn)
	}
	db, err := gorm.Open(d, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	if err := db.AutoMigrate(&Move{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Record(ctx context.Context, m Move) error {
	if j == nil || j.db == nil {
		return ErrClosed
	}
	m.ID = 0
	return j.db.WithContext(ctx).Create(&m).Error
}

// List returns the moves of room oldest first.
func (j *Journal) List(ctx context.Context, room string) ([]Move, error) {
	if j == nil || j.db == nil {
		return nil, ErrClosed
	}
	var moves []Move
	err := j.db.WithContext(ctx).Where("room = ?", room).Order("id").Find(&moves).Error
	return moves, err
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	j.db = nil
	return sqlDB.Close()
}
