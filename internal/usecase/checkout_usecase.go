package usecase

import (
	"context"
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/infra/commerce"
	"storefront/internal/store"

	"github.com/sirupsen/logrus"
)

// 税率（%）
const taxRatePercent = 8

type CheckoutSummary struct {
	Items    []CartItemResponse `json:"items"`
	Subtotal int64              `json:"subtotal"`
	Tax      int64              `json:"tax"`
	Total    int64              `json:"total"`
}

// CheckoutUsecase は注文確認と注文確定。ログイン必須。
type CheckoutUsecase struct {
	shoppers ShopperSource
	checkout CheckoutGateway
	run      store.Runner
	log      logrus.FieldLogger
}

// DI
func NewCheckoutUsecase(shoppers ShopperSource, checkout CheckoutGateway, run store.Runner, log logrus.FieldLogger) *CheckoutUsecase {
	if run == nil {
		run = store.GoRunner
	}
	return &CheckoutUsecase{
		shoppers: shoppers,
		checkout: checkout,
		run:      run,
		log:      log,
	}
}

func (u *CheckoutUsecase) Summary(ctx context.Context, shopperID string) (CheckoutSummary, error) {
	s, err := u.authenticated(ctx, shopperID)
	if err != nil {
		return CheckoutSummary{}, err
	}

	items := s.Cart.Snapshot().Items
	if len(items) == 0 {
		return CheckoutSummary{}, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}
	return summarize(items), nil
}

// PlaceOrder は明細をコマースAPIへ送り（結果は待たない）、カートを空にする。
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, shopperID string) (CheckoutSummary, error) {
	s, err := u.authenticated(ctx, shopperID)
	if err != nil {
		return CheckoutSummary{}, err
	}

	items := s.Cart.Snapshot().Items
	if len(items) == 0 {
		return CheckoutSummary{}, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}
	summary := summarize(items)

	st := s.Auth.State()
	email := ""
	if st.Session.Identity != nil {
		email = st.Session.Identity.Email
	}

	if lines := commerce.LinesFromItems(items); len(lines) > 0 && u.checkout != nil {
		token := st.Session.Token
		detached := context.WithoutCancel(ctx)
		u.run(func() {
			if _, err := u.checkout.CreateCheckout(detached, token, email, lines); err != nil {
				u.log.WithFields(logrus.Fields{"shopper_id": shopperID, "error": err}).
					Warn("checkout create failed")
			}
		})
		u.checkout.ForgetCheckout(shopperID)
	}

	warnPersist(u.log, shopperID, "checkout.clear", s.Cart.Clear(ctx))

	u.log.WithFields(logrus.Fields{
		"shopper_id": shopperID,
		"lines":      len(summary.Items),
		"total":      summary.Total,
	}).Info("order placed")
	return summary, nil
}

func (u *CheckoutUsecase) authenticated(ctx context.Context, shopperID string) (*store.Shopper, error) {
	s, err := loadShopper(ctx, u.shoppers, u.log, shopperID)
	if err != nil {
		return nil, err
	}
	if !s.Auth.IsAuthenticated() {
		return nil, unauthorized()
	}
	return s, nil
}

func summarize(items model.LineItems) CheckoutSummary {
	subtotal := items.TotalPrice()
	tax := Tax(subtotal)
	return CheckoutSummary{
		Items:    toItemResponses(items),
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// Tax は小計の8%を最小通貨単位で四捨五入する。
func Tax(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	// 100で割ってから掛けて溢れを避ける
	q, r := subtotal/100, subtotal%100
	return q*taxRatePercent + (r*taxRatePercent+50)/100
}
