package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 永続化キーバリューの約束
// Load は無ければ ErrNotFound、Delete は無くてもエラーにしない。
type RecordRepository interface {
	Load(ctx context.Context, key model.RecordKey) ([]byte, error)
	Save(ctx context.Context, key model.RecordKey, value []byte) error
	Delete(ctx context.Context, key model.RecordKey) error
}
