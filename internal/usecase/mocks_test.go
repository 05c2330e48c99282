package usecase

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/infra/commerce"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/store"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// commerce mocks
// =====================

type CheckoutGatewayMock struct{ mock.Mock }

func (m *CheckoutGatewayMock) SubmitLines(ctx context.Context, shopperID, token, email string, lines []commerce.CheckoutLine) (commerce.Checkout, error) {
	args := m.Called(ctx, shopperID, token, email, lines)
	co, _ := args.Get(0).(commerce.Checkout)
	return co, args.Error(1)
}

func (m *CheckoutGatewayMock) CreateCheckout(ctx context.Context, token, email string, lines []commerce.CheckoutLine) (commerce.Checkout, error) {
	args := m.Called(ctx, token, email, lines)
	co, _ := args.Get(0).(commerce.Checkout)
	return co, args.Error(1)
}

func (m *CheckoutGatewayMock) ForgetCheckout(shopperID string) {
	m.Called(shopperID)
}

type TokenIssuerMock struct{ mock.Mock }

func (m *TokenIssuerMock) CreateToken(ctx context.Context, email, password string) (commerce.TokenResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(commerce.TokenResult)
	return res, args.Error(1)
}

type CatalogMock struct{ mock.Mock }

func (m *CatalogMock) Products(ctx context.Context, first int) ([]commerce.Product, error) {
	args := m.Called(ctx, first)
	p, _ := args.Get(0).([]commerce.Product)
	return p, args.Error(1)
}

func (m *CatalogMock) Product(ctx context.Context, slug string) (commerce.Product, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(commerce.Product)
	return p, args.Error(1)
}

func (m *CatalogMock) Attributes(ctx context.Context, first int) ([]commerce.Attribute, error) {
	args := m.Called(ctx, first)
	a, _ := args.Get(0).([]commerce.Attribute)
	return a, args.Error(1)
}

// =====================
// helper
// =====================

const shopperID = "shopper-1"

func newRegistry() *store.Registry {
	return store.NewRegistry(infraRepo.NewRecordMemoryRepository(), nil, logger.Discard(), store.WithRunner(store.InlineRunner))
}

func login(t *testing.T, reg *store.Registry) *store.Shopper {
	t.Helper()
	s, err := reg.Get(context.Background(), shopperID)
	require.NoError(t, err)
	require.NoError(t, s.Auth.Login(context.Background(), "tok", &model.Identity{Email: "user@example.com"}))
	return s
}
