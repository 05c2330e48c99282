package commerce

import (
	"math"

	"storefront/internal/domain/model"
)

// Money はAPIが返す金額（小数）。
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// MinorUnits は最小通貨単位（セント）に丸める。
func (m Money) MinorUnits() int64 {
	return int64(math.Round(m.Amount * 100))
}

type pricing struct {
	Price *struct {
		Gross Money `json:"gross"`
	} `json:"price"`
}

type Image struct {
	ID   string `json:"id,omitempty"`
	URL  string `json:"url"`
	Alt  string `json:"alt,omitempty"`
	Type string `json:"type,omitempty"`
}

type Variant struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	SKU     string   `json:"sku"`
	Pricing *pricing `json:"pricing,omitempty"`
}

// Price は税込価格。無ければ ok=false。
func (v Variant) Price() (Money, bool) {
	if v.Pricing == nil || v.Pricing.Price == nil {
		return Money{}, false
	}
	return v.Pricing.Price.Gross, true
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Product struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	Slug                   string    `json:"slug"`
	Description            string    `json:"description,omitempty"`
	SEOTitle               string    `json:"seoTitle,omitempty"`
	SEODescription         string    `json:"seoDescription,omitempty"`
	DefaultVariant         *Variant  `json:"defaultVariant,omitempty"`
	Variants               []Variant `json:"variants"`
	Media                  []Image   `json:"media"`
	Category               *Category `json:"category,omitempty"`
	IsAvailableForPurchase bool      `json:"isAvailableForPurchase"`
}

// LineItem は指定バリアントでカート明細を組み立てる。
// バリアントが空なら defaultVariant、それも無ければ先頭を使う。
func (p Product) LineItem(variantID string, quantity int64) (model.LineItem, bool) {
	v, ok := p.variant(variantID)
	if !ok {
		return model.LineItem{}, false
	}

	item := model.LineItem{
		ID:       v.ID,
		Name:     p.Name,
		Quantity: quantity,
		Variant:  &model.Variant{ID: v.ID, Name: v.Name, SKU: v.SKU},
	}
	if price, ok := v.Price(); ok {
		item.UnitPrice = price.MinorUnits()
	}
	if len(p.Media) > 0 {
		item.ImageRef = p.Media[0].URL
	}
	return item, true
}

func (p Product) variant(id string) (Variant, bool) {
	if id == "" {
		if p.DefaultVariant != nil {
			return *p.DefaultVariant, true
		}
		if len(p.Variants) > 0 {
			return p.Variants[0], true
		}
		return Variant{}, false
	}
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

type AttributeChoice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Attribute struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Slug      string            `json:"slug"`
	InputType string            `json:"inputType"`
	Choices   []AttributeChoice `json:"choices"`
}

// CheckoutLine は送信する明細。
type CheckoutLine struct {
	VariantID string `json:"variantId"`
	Quantity  int64  `json:"quantity"`
}

// LinesFromItems はバリアント付きの明細だけを送信用に変換する。
func LinesFromItems(items model.LineItems) []CheckoutLine {
	out := make([]CheckoutLine, 0, len(items))
	for _, it := range items {
		if it.Variant == nil || it.Variant.ID == "" || it.Quantity <= 0 {
			continue
		}
		out = append(out, CheckoutLine{VariantID: it.Variant.ID, Quantity: it.Quantity})
	}
	return out
}

type CheckoutLineResult struct {
	ID       string  `json:"id"`
	Quantity int64   `json:"quantity"`
	Variant  Variant `json:"variant"`
}

type Checkout struct {
	ID    string               `json:"id"`
	Token string               `json:"token"`
	Lines []CheckoutLineResult `json:"lines"`
}

// TokenResult はログイン結果。
type TokenResult struct {
	Token    string
	Identity *model.Identity
}

type userPayload struct {
	Email           string `json:"email"`
	IsStaff         bool   `json:"isStaff"`
	UserPermissions []struct {
		Code string `json:"code"`
	} `json:"userPermissions"`
}

func (u *userPayload) identity() *model.Identity {
	if u == nil {
		return nil
	}
	id := &model.Identity{Email: u.Email, IsStaff: u.IsStaff}
	for _, p := range u.UserPermissions {
		id.Permissions = append(id.Permissions, model.Permission{Code: p.Code})
	}
	return id
}
