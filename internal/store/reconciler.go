package store

import (
	"context"
	"errors"

	"storefront/internal/domain/model"

	"github.com/sirupsen/logrus"
)

// ゲストカートから明細を取り出す約束
type GuestCartSource interface {
	Drain(ctx context.Context) (model.LineItems, error)
}

// ログイン済みカートへ取り込む約束
type CartMerger interface {
	MergeItems(ctx context.Context, items model.LineItems) error
}

// Reconciler はログイン時にゲストカートをログイン済みカートへ統合する。
// ゲスト側は取り出した時点で空になるので、続けて呼んでも2回目は何もしない。
type Reconciler struct {
	shopperID string
	guest     GuestCartSource
	cart      CartMerger
	log       logrus.FieldLogger
}

// DI
func NewReconciler(shopperID string, guest GuestCartSource, cart CartMerger, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{
		shopperID: shopperID,
		guest:     guest,
		cart:      cart,
		log:       log,
	}
}

// Reconcile は統合した明細の件数を返す。
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	items, drainErr := r.guest.Drain(ctx)
	if len(items) == 0 {
		return 0, drainErr
	}

	mergeErr := r.cart.MergeItems(ctx, items)

	r.log.WithFields(logrus.Fields{
		"shopper_id": r.shopperID,
		"lines":      len(items),
		"quantity":   items.TotalQuantity(),
	}).Info("guest cart merged")

	return len(items), errors.Join(drainErr, mergeErr)
}

// Merge はログイン済みカートとゲストカートを統合した結果を返す（純粋関数）。
// 同一IDは数量を合計し、ゲストにしか無い明細は末尾に追加する。
func Merge(authenticated, guest model.LineItems) model.LineItems {
	return authenticated.MergeAll(guest)
}
