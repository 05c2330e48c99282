package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecordGormRepository struct {
	db *gorm.DB
}

// DI
func NewRecordGormRepository(db *gorm.DB) *RecordGormRepository {
	return &RecordGormRepository{db: db}
}

// レコードを取得
func (r *RecordGormRepository) Load(ctx context.Context, key model.RecordKey) ([]byte, error) {
	var rec model.Record

	err := r.db.WithContext(ctx).
		Where("shopper_id = ? AND name = ?", key.ShopperID, string(key.Name)).
		First(&rec).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(rec.Value), nil
}

// 丸ごと上書き（無ければ作成）
func (r *RecordGormRepository) Save(ctx context.Context, key model.RecordKey, value []byte) error {
	rec := model.Record{
		ShopperID: key.ShopperID,
		Name:      string(key.Name),
		Value:     string(value),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shopper_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rec).Error
}

// 削除（無くてもOK）
func (r *RecordGormRepository) Delete(ctx context.Context, key model.RecordKey) error {
	return r.db.WithContext(ctx).
		Where("shopper_id = ? AND name = ?", key.ShopperID, string(key.Name)).
		Delete(&model.Record{}).Error
}
