package repository

import (
	"context"
	"errors"
	"qdrt_backend/internal/model"
	"qdrt_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStateStore keeps state rows in the state_entries table.
type GormStateStore struct {
	DB *gorm.DB
}

func NewGormStateStore(db *gorm.DB) *GormStateStore {
	return &GormStateStore{DB: db}
}

func (s *GormStateStore) Load(ctx context.Context, key string) ([]byte, error) {
	var entry model.StateEntry
	err := s.DB.WithContext(ctx).Where("`key` = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(entry.Value), nil
}

func (s *GormStateStore) Save(ctx context.Context, key string, value []byte) error {
	entry := model.StateEntry{Key: key, Value: string(value)}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *GormStateStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
