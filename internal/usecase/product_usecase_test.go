package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"storefront/internal/infra/commerce"
	"storefront/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductUsecase_ListProducts(t *testing.T) {
	catalog := new(CatalogMock)
	catalog.On("Products", mock.Anything, 20).Return([]commerce.Product{{ID: "p1"}, {ID: "p2"}}, nil)

	uc := NewProductUsecase(catalog, logger.Discard())
	out, err := uc.ListProducts(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)

	_, err = uc.ListProducts(context.Background(), 101)
	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

func TestProductUsecase_GetProduct(t *testing.T) {
	catalog := new(CatalogMock)
	catalog.On("Product", mock.Anything, "tee").Return(commerce.Product{ID: "p1", Slug: "tee"}, nil)
	catalog.On("Product", mock.Anything, "gone").Return(commerce.Product{}, commerce.ErrProductNotFound)
	catalog.On("Product", mock.Anything, "boom").Return(commerce.Product{}, errors.New("timeout"))

	uc := NewProductUsecase(catalog, logger.Discard())
	ctx := context.Background()

	p, err := uc.GetProduct(ctx, "tee")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	tests := map[string]int{"gone": http.StatusNotFound, "boom": http.StatusBadGateway, " ": http.StatusBadRequest}
	for slug, status := range tests {
		_, err := uc.GetProduct(ctx, slug)
		he, ok := AsHTTPError(err)
		require.True(t, ok, slug)
		assert.Equal(t, status, he.Status, slug)
	}
}

func TestProductUsecase_ListAttributes(t *testing.T) {
	catalog := new(CatalogMock)
	catalog.On("Attributes", mock.Anything, 10).Return([]commerce.Attribute{{ID: "a1", Name: "Size"}}, nil)

	uc := NewProductUsecase(catalog, logger.Discard())
	attrs, err := uc.ListAttributes(context.Background())
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "Size", attrs[0].Name)
}
