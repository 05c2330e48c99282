package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/infra/commerce"

	"github.com/sirupsen/logrus"
)

// 商品カタログを引く約束
type Catalog interface {
	Products(ctx context.Context, first int) ([]commerce.Product, error)
	Product(ctx context.Context, slug string) (commerce.Product, error)
	Attributes(ctx context.Context, first int) ([]commerce.Attribute, error)
}

// ProductUsecase はコマースAPIの商品を中継する。
type ProductUsecase struct {
	catalog Catalog
	log     logrus.FieldLogger
}

// DI
func NewProductUsecase(catalog Catalog, log logrus.FieldLogger) *ProductUsecase {
	return &ProductUsecase{catalog: catalog, log: log}
}

type ProductListOutput struct {
	Items []commerce.Product `json:"items"`
	Total int                `json:"total"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, first int) (ProductListOutput, error) {
	if first < 0 || first > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid first")
	}

	items, err := u.catalog.Products(ctx, first)
	if err != nil {
		return ProductListOutput{}, u.upstream("products", err)
	}
	return ProductListOutput{Items: items, Total: len(items)}, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, slug string) (commerce.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return commerce.Product{}, NewHTTPError(http.StatusBadRequest, "invalid slug")
	}

	p, err := u.catalog.Product(ctx, slug)
	if errors.Is(err, commerce.ErrProductNotFound) {
		return commerce.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return commerce.Product{}, u.upstream("product", err)
	}
	return p, nil
}

func (u *ProductUsecase) ListAttributes(ctx context.Context) ([]commerce.Attribute, error) {
	attrs, err := u.catalog.Attributes(ctx, 10)
	if err != nil {
		return nil, u.upstream("attributes", err)
	}
	return attrs, nil
}

func (u *ProductUsecase) upstream(op string, err error) error {
	u.log.WithFields(logrus.Fields{"op": op, "error": err}).Warn("commerce api failed")
	return NewHTTPError(http.StatusBadGateway, "commerce api error")
}
