package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/store"

	"github.com/sirupsen/logrus"
)

// ショッパーのストア一式を取り出す約束
type ShopperSource interface {
	Get(ctx context.Context, shopperID string) (*store.Shopper, error)
}

func loadShopper(ctx context.Context, src ShopperSource, log logrus.FieldLogger, shopperID string) (*store.Shopper, error) {
	s, err := src.Get(ctx, shopperID)
	if errors.Is(err, store.ErrShopperRequired) {
		return nil, NewHTTPError(http.StatusBadRequest, "shopper id required")
	}
	if err != nil {
		log.WithFields(logrus.Fields{"shopper_id": shopperID, "error": err}).Error("load shopper failed")
		return nil, NewHTTPError(http.StatusInternalServerError, "storage error")
	}
	return s, nil
}

// 保存失敗はメモリ上の状態を優先して続行する
func warnPersist(log logrus.FieldLogger, shopperID, op string, err error) {
	if err == nil {
		return
	}
	log.WithFields(logrus.Fields{
		"shopper_id": shopperID,
		"op":         op,
		"error":      err,
	}).Warn("state kept in memory, persist failed")
}
