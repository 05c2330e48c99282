package usecase

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/infra/commerce"
	"storefront/internal/store"

	"github.com/sirupsen/logrus"
)

const (
	defaultMaxLineQuantity = 99
	defaultMaxUnitPrice    = 100_000_000

	// カート合計の上限（税計算でも溢れない範囲）
	maxCartTotal = math.MaxInt64 / 100
)

// CartLimits は受け付ける明細の上限。
type CartLimits struct {
	MaxLineQuantity int64 // 1明細の数量（加算後）
	MaxUnitPrice    int64 // 単価（最小通貨単位）
}

// コマースAPIのチェックアウトに明細を送る約束
type CheckoutGateway interface {
	SubmitLines(ctx context.Context, shopperID, token, email string, lines []commerce.CheckoutLine) (commerce.Checkout, error)
	CreateCheckout(ctx context.Context, token, email string, lines []commerce.CheckoutLine) (commerce.Checkout, error)
	ForgetCheckout(shopperID string)
}

// 商品を引く約束
type ProductFinder interface {
	Product(ctx context.Context, slug string) (commerce.Product, error)
}

// CartUsecase は /cart の業務ロジックです。
// ログイン中はログイン済みカート、未ログインならゲストカートを操作します。
type CartUsecase struct {
	shoppers ShopperSource
	checkout CheckoutGateway
	products ProductFinder
	run      store.Runner
	log      logrus.FieldLogger
	limits   CartLimits
}

func NewCartUsecase(
	shoppers ShopperSource,
	checkout CheckoutGateway,
	products ProductFinder,
	run store.Runner,
	log logrus.FieldLogger,
	limits CartLimits,
) *CartUsecase {
	if run == nil {
		run = store.GoRunner
	}
	if limits.MaxLineQuantity <= 0 {
		limits.MaxLineQuantity = defaultMaxLineQuantity
	}
	if limits.MaxUnitPrice <= 0 {
		limits.MaxUnitPrice = defaultMaxUnitPrice
	}
	return &CartUsecase{
		shoppers: shoppers,
		checkout: checkout,
		products: products,
		run:      run,
		log:      log,
		limits:   limits,
	}
}

type CartItemResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Price     int64          `json:"price"`
	Quantity  int64          `json:"quantity"`
	LineTotal int64          `json:"line_total"`
	Image     string         `json:"image,omitempty"`
	Variant   *model.Variant `json:"variant,omitempty"`
}

type CartResponse struct {
	Kind       model.CartKind     `json:"kind"`
	Items      []CartItemResponse `json:"items"`
	TotalItems int64              `json:"total_items"`
	TotalPrice int64              `json:"total_price"`
	Visible    bool               `json:"visible"`
	Guest      bool               `json:"guest"`
}

// AddCartInput は明細をそのまま渡すか、slug（+variant）で商品から組み立てる。
type AddCartInput struct {
	ID          string
	Name        string
	Price       int64
	Quantity    int64
	Image       string
	Variant     *model.Variant
	ProductSlug string
	VariantID   string
}

type CartItemDetail struct {
	ID        string `json:"id"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type BadgeResponse struct {
	Cart  int64 `json:"cart"`
	Guest int64 `json:"guest"`
	Total int64 `json:"total"`
}

// CartStore と GuestCartStore の共通操作
type cartOps interface {
	AddItem(ctx context.Context, item model.LineItem) error
	RemoveItem(ctx context.Context, id string) error
	UpdateQuantity(ctx context.Context, id string, quantity int64) error
	Clear(ctx context.Context) error
	Quantity(id string) int64
	LineTotal(id string) int64
	TotalPrice() int64
}

func activeCart(s *store.Shopper) (cartOps, bool) {
	if s.Auth.IsAuthenticated() {
		return s.Cart, false
	}
	return s.Guest, true
}

func (u *CartUsecase) GetCart(ctx context.Context, shopperID string) (CartResponse, error) {
	s, err := loadShopper(ctx, u.shoppers, u.log, shopperID)
	if err != nil {
		return CartResponse{}, err
	}
	return buildCartResponse(s), nil
}

// AddToCart はカートに追加（同一IDは数量加算）。
// ログイン中はコマースAPIにも送るが、結果は待たない。
func (u *CartUsecase) AddToCart(ctx context.Context, shopperID string, in AddCartInput) (CartResponse, error) {
	s, err := loadShopper(ctx, u.shoppers, u.log, shopperID)
	if err != nil {
		return CartResponse{}, err
	}

	item, err := u.resolveItem(ctx, in)
	if err != nil {
		return CartResponse{}, err
	}

	cart, guest := activeCart(s)
	if err := u.validateItem(item, cart); err != nil {
		return CartResponse{}, err
	}
	warnPersist(u.log, shopperID, "cart.add", cart.AddItem(ctx, item))

	if !guest {
		u.submitRemote(ctx, s, item)
	}
	return buildCartResponse(s), nil
}

// 数量変更（0以下は削除）
func (u *CartUsecase) UpdateCartItem(ctx context.Context, shopperID, itemID string, quantity int64) (CartResponse, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if quantity > u.limits.MaxLineQuantity {
		return CartResponse{}, NewValidationError(map[string]string{"quantity": "too large"})
	}

	s, err := loadShopper(ctx, u.shoppers, u.log, shopperID)
	if err != nil {
		return CartResponse{}, err
	}

	cart, _ := activeCart(s)
	if current := cart.Quantity(itemID); current > 0 && quantity > 0 {
		line := cart.LineTotal(itemID)
		if !fitsCartTotal(cart.TotalPrice()-line, line/current, quantity) {
			return CartResponse{}, NewValidationError(map[string]string{"quantity": "cart total too large"})
		}
	}
	warnPersist(u.log, shopperID, "cart.update", cart.UpdateQuantity(ctx, itemID, quantity))
	return buildCartResponse(s), nil
}

// 明細削除（無ければ何もしない）
func (u *CartUsecase) DeleteCartItem(ctx context.Context, shopperID, itemID string) (CartResponse, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	s, err := loadShopper(ctx, u.shoppers, u.log, shopperID)
	if err != nil {
		return CartResponse{}, err
	}

	cart, _ := activeCart(s)
	warnPersist(u.log, shopperID, "cart.remove", cart.RemoveItem(ctx, itemID))
	return buildCartResponse(s), nil
}

// ClearCart はカートを空にする。ログイン済みカートの場合はゲストの保存分も消える。
func (u *CartUsecase) ClearCart(ctx context.Context, shopperID string) (CartResponse, error) {
	s, err := loadShopper(ctx, u.shoppers, u.log, shopperID)
	if err != nil {
		return CartResponse{}, err
	}

	cart, _ := activeCart(s)
	warnPersist(u.log, shopperID, "cart.clear", cart.Clear(ctx))
	return buildCartResponse(s), nil
}

func (u *CartUsecase) GetCartItem(ctx context.Context, shopperID, itemID string) (CartItemDetail, error) {
	s, err := loadShopper(ctx, u.shoppers, u.log, shopperID)
	if err != nil {
		return CartItemDetail{}, err
	}

	cart, _ := activeCart(s)
	return CartItemDetail{
		ID:        itemID,
		Quantity:  cart.Quantity(itemID),
		LineTotal: cart.LineTotal(itemID),
	}, nil
}

type Visibility int

const (
	VisibilityToggle Visibility = iota
	VisibilityOpen
	VisibilityClose
)

// SetVisibility はカートパネルの開閉。
func (u *CartUsecase) SetVisibility(ctx context.Context, shopperID string, v Visibility) (CartResponse, error) {
	s, err := loadShopper(ctx, u.shoppers, u.log, shopperID)
	if err != nil {
		return CartResponse{}, err
	}

	switch v {
	case VisibilityOpen:
		s.Cart.Open()
	case VisibilityClose:
		s.Cart.Close()
	default:
		s.Cart.Toggle()
	}
	return buildCartResponse(s), nil
}

// Badge はナビのバッジ用に両方のカートの件数を返す。
func (u *CartUsecase) Badge(ctx context.Context, shopperID string) (BadgeResponse, error) {
	s, err := loadShopper(ctx, u.shoppers, u.log, shopperID)
	if err != nil {
		return BadgeResponse{}, err
	}

	cart := s.Cart.TotalItems()
	guest := s.Guest.Count()
	return BadgeResponse{Cart: cart, Guest: guest, Total: cart + guest}, nil
}

func (u *CartUsecase) resolveItem(ctx context.Context, in AddCartInput) (model.LineItem, error) {
	slug := strings.TrimSpace(in.ProductSlug)
	if slug == "" || u.products == nil {
		return model.LineItem{
			ID:        strings.TrimSpace(in.ID),
			Name:      strings.TrimSpace(in.Name),
			UnitPrice: in.Price,
			Quantity:  in.Quantity,
			ImageRef:  in.Image,
			Variant:   in.Variant,
		}, nil
	}

	p, err := u.products.Product(ctx, slug)
	if errors.Is(err, commerce.ErrProductNotFound) {
		return model.LineItem{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		u.log.WithFields(logrus.Fields{"slug": slug, "error": err}).Warn("product lookup failed")
		return model.LineItem{}, NewHTTPError(http.StatusBadGateway, "commerce api error")
	}

	item, ok := p.LineItem(strings.TrimSpace(in.VariantID), in.Quantity)
	if !ok {
		return model.LineItem{}, NewValidationError(map[string]string{"variant_id": "unknown variant"})
	}
	return item, nil
}

// validateItem は追加後の数量と合計も含めて上限を確認する。
func (u *CartUsecase) validateItem(item model.LineItem, cart cartOps) error {
	fields := map[string]string{}
	if item.ID == "" {
		fields["id"] = "required"
	}
	switch {
	case item.Quantity < 1:
		fields["quantity"] = "must be at least 1"
	case item.Quantity > u.limits.MaxLineQuantity:
		fields["quantity"] = "too large"
	case item.ID != "" && cart.Quantity(item.ID) > u.limits.MaxLineQuantity-item.Quantity:
		fields["quantity"] = "too large"
	}
	switch {
	case item.UnitPrice < 0:
		fields["price"] = "must not be negative"
	case item.UnitPrice > u.limits.MaxUnitPrice:
		fields["price"] = "too large"
	}
	if len(fields) == 0 && !fitsCartTotal(cart.TotalPrice(), item.UnitPrice, item.Quantity) {
		fields["price"] = "cart total too large"
	}
	return NewValidationError(fields)
}

// base に単価×数量を足しても上限内か
func fitsCartTotal(base, unitPrice, quantity int64) bool {
	line, ok := model.MulPrice(unitPrice, quantity)
	if !ok || base < 0 {
		return false
	}
	return line <= maxCartTotal-base
}

func (u *CartUsecase) submitRemote(ctx context.Context, s *store.Shopper, item model.LineItem) {
	if u.checkout == nil {
		return
	}
	lines := commerce.LinesFromItems(model.LineItems{item})
	if len(lines) == 0 {
		return
	}

	st := s.Auth.State()
	email := ""
	if st.Session.Identity != nil {
		email = st.Session.Identity.Email
	}
	token := st.Session.Token
	shopperID := s.ID
	detached := context.WithoutCancel(ctx)

	u.run(func() {
		if _, err := u.checkout.SubmitLines(detached, shopperID, token, email, lines); err != nil {
			u.log.WithFields(logrus.Fields{"shopper_id": shopperID, "item_id": item.ID, "error": err}).
				Warn("remote checkout add failed")
		}
	})
}

func buildCartResponse(s *store.Shopper) CartResponse {
	snap := s.Cart.Snapshot()
	active := snap
	if !s.Auth.IsAuthenticated() {
		active = s.Guest.Snapshot()
	}

	return CartResponse{
		Kind:       active.Kind,
		Items:      toItemResponses(active.Items),
		TotalItems: active.TotalItems(),
		TotalPrice: active.TotalPrice(),
		Visible:    snap.Visible,
		Guest:      active.Kind == model.CartKindGuest,
	}
}

func toItemResponses(items model.LineItems) []CartItemResponse {
	out := make([]CartItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, CartItemResponse{
			ID:        it.ID,
			Name:      it.Name,
			Price:     it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.Total(),
			Image:     it.ImageRef,
			Variant:   it.Variant,
		})
	}
	return out
}
