package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/event"
	"storefront/internal/handler"
	"storefront/internal/infra/commerce"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/server"
	"storefront/internal/store"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =====================
// fake commerce API
// =====================

type fakeCommerce struct {
	mu  sync.Mutex
	ops []string
}

func (f *fakeCommerce) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.ops = append(f.ops, req.OperationName)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch req.OperationName {
	case "TokenCreate":
		if req.Variables["password"] != "secret" {
			_, _ = io.WriteString(w, `{"data":{"tokenCreate":{"token":null,"user":null,"errors":[{"field":"email","message":"Invalid credentials"}]}}}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"tokenCreate":{"token":"tok-1","user":{"email":"user@example.com","isStaff":false,"userPermissions":[]},"errors":[]}}}`)
	case "AddToCart":
		_, _ = io.WriteString(w, `{"data":{"checkoutCreate":{"checkout":{"id":"co-1","token":"t","lines":[]},"errors":[]}}}`)
	case "AddToExistingCart":
		_, _ = io.WriteString(w, `{"data":{"checkoutLinesAdd":{"checkout":{"id":"co-1","token":"t","lines":[]},"errors":[]}}}`)
	case "GetProducts":
		_, _ = io.WriteString(w, `{"data":{"products":{"edges":[{"node":{"id":"p1","name":"Tee","slug":"tee","variants":[],"media":[]}}]}}}`)
	case "GetProduct":
		if req.Variables["slug"] != "tee" {
			_, _ = io.WriteString(w, `{"data":{"product":null}}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"product":{"id":"p1","name":"Tee","slug":"tee","variants":[{"id":"v1","name":"M","sku":"T-M","pricing":{"price":{"gross":{"amount":12.5,"currency":"USD"}}}}],"media":[]}}}`)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (f *fakeCommerce) calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.ops {
		if o == op {
			n++
		}
	}
	return n
}

// =====================
// helper
// =====================

type app struct {
	srv      *httptest.Server
	client   *http.Client
	api      *fakeCommerce
	shoppers *store.Registry
	bus      *event.Bus
}

func newApp(t *testing.T) *app {
	t.Helper()
	log := logger.Discard()

	api := &fakeCommerce{}
	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	bus := event.NewBus()
	shoppers := store.NewRegistry(infraRepo.NewRecordMemoryRepository(), bus, log, store.WithRunner(store.InlineRunner))
	client := commerce.NewClient(apiSrv.URL, "test-channel", time.Second, log)

	h := server.Handlers{
		Product:  handler.NewProductHandler(usecase.NewProductUsecase(client, log)),
		Cart:     handler.NewCartHandler(usecase.NewCartUsecase(shoppers, client, client, store.InlineRunner, log, usecase.CartLimits{MaxLineQuantity: 10})),
		Auth:     handler.NewAuthHandler(usecase.NewAuthUsecase(shoppers, validator.NewAuthValidator(), client, client, log)),
		Checkout: handler.NewCheckoutHandler(usecase.NewCheckoutUsecase(shoppers, client, store.InlineRunner, log)),
		Events:   handler.NewEventsHandler(bus, 50*time.Millisecond),
		Admin:    handler.NewAdminHandler(shoppers, bus),
	}
	e := server.New(config.Config{}, log, h, shoppers)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &app{
		srv:      srv,
		client:   &http.Client{Jar: jar, Timeout: 2 * time.Second},
		api:      api,
		shoppers: shoppers,
		bus:      bus,
	}
}

func (a *app) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// =====================
// cart
// =====================

func TestCart_GuestAddUpdateRemove(t *testing.T) {
	a := newApp(t)

	var cart usecase.CartResponse
	status := a.do(t, http.MethodPost, "/cart/items", map[string]any{"id": "a", "name": "A", "price": 500, "quantity": 2}, &cart)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, cart.Guest)
	assert.Equal(t, int64(1000), cart.TotalPrice)

	status = a.do(t, http.MethodPost, "/cart/items", map[string]any{"id": "a", "name": "A", "price": 500, "quantity": 1}, &cart)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(3), cart.Items[0].Quantity)

	var item usecase.CartItemDetail
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/cart/items/a", nil, &item))
	assert.Equal(t, int64(1500), item.LineTotal)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPatch, "/cart/items/a", map[string]any{"quantity": 0}, &cart))
	assert.Empty(t, cart.Items)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, "/cart/items/missing", nil, &cart))
}

func TestCart_ValidationError(t *testing.T) {
	a := newApp(t)

	var resp handler.ValidationErrorResponse
	status := a.do(t, http.MethodPost, "/cart/items", map[string]any{"id": "a", "quantity": 0}, &resp)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error)
	assert.Contains(t, resp.Fields, "quantity")
}

func TestCart_VisibilityAndBadge(t *testing.T) {
	a := newApp(t)

	var cart usecase.CartResponse
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/cart/toggle", nil, &cart))
	assert.True(t, cart.Visible)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/cart/close", nil, &cart))
	assert.False(t, cart.Visible)

	a.do(t, http.MethodPost, "/cart/items", map[string]any{"id": "a", "quantity": 4}, nil)

	var badge usecase.BadgeResponse
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/cart/badge", nil, &badge))
	assert.Equal(t, int64(4), badge.Total)
}

// =====================
// auth + reconciliation + checkout
// =====================

func TestAuth_LoginMergesGuestCart_ThenCheckout(t *testing.T) {
	a := newApp(t)

	a.do(t, http.MethodPost, "/cart/items", map[string]any{"product_slug": "tee", "quantity": 2}, nil)

	// 未ログインでは注文できない
	require.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/checkout", nil, nil))

	var session usecase.SessionResponse
	status := a.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "user@example.com", "password": "secret"}, &session)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, session.IsAuthenticated)

	var cart usecase.CartResponse
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/cart", nil, &cart))
	assert.False(t, cart.Guest)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "v1", cart.Items[0].ID)
	assert.Equal(t, int64(1250), cart.Items[0].Price)

	// ログイン中の追加はコマースAPIにも送る
	a.do(t, http.MethodPost, "/cart/items", map[string]any{"product_slug": "tee", "quantity": 1}, &cart)
	assert.Equal(t, int64(3), cart.TotalItems)
	assert.Equal(t, 1, a.api.calls("AddToCart"))

	var summary usecase.CheckoutSummary
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/checkout", nil, &summary))
	assert.Equal(t, int64(3750), summary.Subtotal)
	assert.Equal(t, int64(300), summary.Tax)
	assert.Equal(t, int64(4050), summary.Total)

	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/checkout", nil, &summary))
	assert.Equal(t, 2, a.api.calls("AddToCart"))

	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/cart", nil, &cart))
	assert.Empty(t, cart.Items)

	require.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/checkout", nil, nil))
}

func TestAuth_InvalidCredentials(t *testing.T) {
	a := newApp(t)

	var resp handler.ErrorResponse
	status := a.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "user@example.com", "password": "wrong"}, &resp)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", resp.Error)

	var me usecase.SessionResponse
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/auth/me", nil, &me))
	assert.False(t, me.IsAuthenticated)
	assert.Equal(t, "Invalid credentials", me.Error)
}

func TestAuth_LoginValidation(t *testing.T) {
	a := newApp(t)

	var resp handler.ValidationErrorResponse
	status := a.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "nope"}, &resp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Fields, "email")
	assert.Contains(t, resp.Fields, "password")
	assert.Equal(t, 0, a.api.calls("TokenCreate"))
}

func TestAuth_Logout(t *testing.T) {
	a := newApp(t)
	a.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "user@example.com", "password": "secret"}, nil)
	a.do(t, http.MethodPost, "/cart/items", map[string]any{"id": "x", "quantity": 1}, nil)

	var session usecase.SessionResponse
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/auth/logout", nil, &session))
	assert.False(t, session.IsAuthenticated)

	// 未ログインに戻るとゲストカートを見る
	var cart usecase.CartResponse
	a.do(t, http.MethodGet, "/cart", nil, &cart)
	assert.True(t, cart.Guest)
	assert.Empty(t, cart.Items)
}

func TestAdmin_RequiresStaff(t *testing.T) {
	a := newApp(t)

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/admin/stats", nil, nil))

	a.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "user@example.com", "password": "secret"}, nil)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/admin/stats", nil, nil))
}

// =====================
// products
// =====================

func TestProducts(t *testing.T) {
	a := newApp(t)

	var list usecase.ProductListOutput
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/products?first=5", nil, &list))
	assert.Equal(t, 1, list.Total)

	var p commerce.Product
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/products/tee", nil, &p))
	assert.Equal(t, "Tee", p.Name)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/products/none", nil, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/products?first=abc", nil, nil))
}

// =====================
// events
// =====================

func TestEvents_StreamsCartChanges(t *testing.T) {
	a := newApp(t)

	// cookie を発行させる
	a.do(t, http.MethodGet, "/cart", nil, nil)

	req, err := http.NewRequest(http.MethodGet, a.srv.URL+"/cart/events", nil)
	require.NoError(t, err)
	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return a.bus.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	a.do(t, http.MethodPost, "/cart/items", map[string]any{"id": "a", "quantity": 1}, nil)

	buf := make([]byte, 4096)
	var got strings.Builder
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && !strings.Contains(got.String(), "guest_cart.changed") {
		n, err := resp.Body.Read(buf)
		got.Write(buf[:n])
		if err != nil {
			break
		}
	}
	assert.Contains(t, got.String(), "event: guest_cart.changed")
}
