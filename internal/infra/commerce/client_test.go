package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =====================
// fake API
// =====================

type fakeAPI struct {
	mu       sync.Mutex
	requests []gqlRequest
	headers  []http.Header
	reply    func(req gqlRequest) (int, string)
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.headers = append(f.headers, r.Header.Clone())
		f.mu.Unlock()

		status, body := f.reply(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newTestClient(t *testing.T, reply func(req gqlRequest) (int, string)) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{reply: reply}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "online-inr", time.Second, logger.Discard()), api
}

// =====================
// documents
// =====================

func TestParseDocument_DerivesOperationName(t *testing.T) {
	assert.Equal(t, "TokenCreate", tokenCreateDoc.Name)
	assert.Equal(t, "AddToCart", checkoutCreateDoc.Name)
	assert.Equal(t, "AddToExistingCart", checkoutLinesAddDoc.Name)
	assert.Equal(t, "GetProduct", productDoc.Name)
}

func TestParseDocument_RejectsMalformed(t *testing.T) {
	_, err := ParseDocument("bad", "query { products(")
	assert.Error(t, err)

	_, err = ParseDocument("two", "query A { a } query B { b }")
	assert.Error(t, err)
}

// =====================
// CreateToken
// =====================

func TestCreateToken_Success(t *testing.T) {
	c, api := newTestClient(t, func(gqlRequest) (int, string) {
		return 200, `{"data":{"tokenCreate":{"token":"jwt-1","user":{"email":"a@b.c","isStaff":true,"userPermissions":[{"code":"MANAGE_ORDERS"}]},"errors":[]}}}`
	})

	res, err := c.CreateToken(context.Background(), " a@b.c ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", res.Token)
	require.NotNil(t, res.Identity)
	assert.True(t, res.Identity.IsStaff)
	assert.True(t, res.Identity.HasPermission("MANAGE_ORDERS"))

	require.Len(t, api.requests, 1)
	assert.Equal(t, "TokenCreate", api.requests[0].OperationName)
	assert.Equal(t, "a@b.c", api.requests[0].Variables["email"])
	assert.Empty(t, api.headers[0].Get("Authorization"))
}

func TestCreateToken_FieldErrors(t *testing.T) {
	c, _ := newTestClient(t, func(gqlRequest) (int, string) {
		return 200, `{"data":{"tokenCreate":{"token":null,"user":null,"errors":[{"field":"email","message":"Please, enter valid credentials"}]}}}`
	})

	_, err := c.CreateToken(context.Background(), "a@b.c", "wrong")

	var fe *FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "email", fe.Errors[0].Field)
	assert.Equal(t, "Please, enter valid credentials", fe.First())
}

func TestCreateToken_MissingUser_IsInvalid(t *testing.T) {
	c, _ := newTestClient(t, func(gqlRequest) (int, string) {
		return 200, `{"data":{"tokenCreate":{"token":"x","user":null,"errors":[]}}}`
	})

	_, err := c.CreateToken(context.Background(), "a@b.c", "pw")

	var fe *FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Invalid credentials", fe.First())
}

func TestDo_GraphQLErrors(t *testing.T) {
	c, _ := newTestClient(t, func(gqlRequest) (int, string) {
		return 200, `{"data":null,"errors":[{"message":"Syntax Error"}]}`
	})

	_, err := c.Products(context.Background(), 10)

	var fe *FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Syntax Error", fe.First())
}

func TestDo_HTTPStatus(t *testing.T) {
	c, _ := newTestClient(t, func(gqlRequest) (int, string) {
		return 502, `bad gateway`
	})

	_, err := c.Products(context.Background(), 10)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 502, se.Status)
}

func TestDo_NotConfigured(t *testing.T) {
	c := NewClient("", "", 0, logger.Discard())

	_, err := c.Products(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

// =====================
// checkout
// =====================

func TestSubmitLines_CreatesThenAdds(t *testing.T) {
	c, api := newTestClient(t, func(req gqlRequest) (int, string) {
		if req.OperationName == "AddToCart" {
			return 200, `{"data":{"checkoutCreate":{"checkout":{"id":"co-1","token":"t","lines":[]},"errors":[]}}}`
		}
		return 200, `{"data":{"checkoutLinesAdd":{"checkout":{"id":"co-1","token":"t","lines":[]},"errors":[]}}}`
	})
	ctx := context.Background()
	lines := []CheckoutLine{{VariantID: "v1", Quantity: 2}}

	co, err := c.SubmitLines(ctx, "s1", "tok", "a@b.c", lines)
	require.NoError(t, err)
	assert.Equal(t, "co-1", co.ID)

	_, err = c.SubmitLines(ctx, "s1", "tok", "a@b.c", lines)
	require.NoError(t, err)

	require.Len(t, api.requests, 2)
	assert.Equal(t, "AddToCart", api.requests[0].OperationName)
	assert.Equal(t, "AddToExistingCart", api.requests[1].OperationName)
	assert.Equal(t, "co-1", api.requests[1].Variables["checkoutId"])
	assert.Equal(t, "Bearer tok", api.headers[0].Get("Authorization"))

	input := api.requests[0].Variables["input"].(map[string]any)
	assert.Equal(t, "online-inr", input["channel"])
	assert.Equal(t, "a@b.c", input["email"])
}

func TestSubmitLines_AddFails_RecreatesCheckout(t *testing.T) {
	c, api := newTestClient(t, func(req gqlRequest) (int, string) {
		if req.OperationName == "AddToExistingCart" {
			return 200, `{"data":{"checkoutLinesAdd":{"checkout":null,"errors":[{"field":"checkoutId","message":"not found"}]}}}`
		}
		return 200, `{"data":{"checkoutCreate":{"checkout":{"id":"co-2","token":"t","lines":[]},"errors":[]}}}`
	})
	c.rememberCheckout("s1", "stale")

	co, err := c.SubmitLines(context.Background(), "s1", "tok", "", []CheckoutLine{{VariantID: "v1", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, "co-2", co.ID)
	assert.Len(t, api.requests, 2)

	id, ok := c.CheckoutID("s1")
	assert.True(t, ok)
	assert.Equal(t, "co-2", id)
}

func TestCreateCheckout_EmptyLines(t *testing.T) {
	c, api := newTestClient(t, func(gqlRequest) (int, string) { return 200, `{}` })

	_, err := c.CreateCheckout(context.Background(), "", "", nil)
	assert.ErrorIs(t, err, ErrEmptyLines)
	assert.Empty(t, api.requests)
}

func TestLinesFromItems_SkipsItemsWithoutVariant(t *testing.T) {
	items := model.LineItems{
		{ID: "a", Quantity: 2, Variant: &model.Variant{ID: "v1"}},
		{ID: "b", Quantity: 1},
		{ID: "c", Quantity: 0, Variant: &model.Variant{ID: "v3"}},
	}

	assert.Equal(t, []CheckoutLine{{VariantID: "v1", Quantity: 2}}, LinesFromItems(items))
}

// =====================
// catalog
// =====================

func TestProducts(t *testing.T) {
	c, api := newTestClient(t, func(gqlRequest) (int, string) {
		return 200, `{"data":{"products":{"edges":[{"node":{"id":"p1","name":"Tee","slug":"tee","variants":[{"id":"v1","name":"M","sku":"T-M"}],"media":[{"url":"tee.png"}]}}]}}}`
	})

	got, err := c.Products(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "tee", got[0].Slug)
	assert.EqualValues(t, 100, api.requests[0].Variables["first"])
	assert.Equal(t, "online-inr", api.requests[0].Variables["channel"])
}

func TestProduct_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(gqlRequest) (int, string) {
		return 200, `{"data":{"product":null}}`
	})

	_, err := c.Product(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProduct_LineItem(t *testing.T) {
	c, _ := newTestClient(t, func(gqlRequest) (int, string) {
		return 200, `{"data":{"product":{"id":"p1","name":"Tee","slug":"tee",
			"defaultVariant":{"id":"v1","name":"M","sku":"T-M","pricing":{"price":{"gross":{"amount":19.99,"currency":"USD"}}}},
			"variants":[{"id":"v1","name":"M","sku":"T-M","pricing":{"price":{"gross":{"amount":19.99,"currency":"USD"}}}},
			            {"id":"v2","name":"L","sku":"T-L","pricing":{"price":{"gross":{"amount":21.5,"currency":"USD"}}}}],
			"media":[{"url":"tee.png"}],"isAvailableForPurchase":true}}}`
	})

	p, err := c.Product(context.Background(), "tee")
	require.NoError(t, err)

	def, ok := p.LineItem("", 1)
	require.True(t, ok)
	assert.Equal(t, "v1", def.ID)
	assert.Equal(t, int64(1999), def.UnitPrice)
	assert.Equal(t, "tee.png", def.ImageRef)

	large, ok := p.LineItem("v2", 3)
	require.True(t, ok)
	assert.Equal(t, int64(2150), large.UnitPrice)
	assert.Equal(t, "T-L", large.Variant.SKU)

	_, ok = p.LineItem("nope", 1)
	assert.False(t, ok)
}

func TestAttributes(t *testing.T) {
	c, _ := newTestClient(t, func(gqlRequest) (int, string) {
		return 200, `{"data":{"attributes":{"edges":[{"node":{"id":"a1","name":"Size","slug":"size","inputType":"DROPDOWN","choices":{"edges":[{"node":{"id":"c1","name":"M","slug":"m"}}]}}}]}}}`
	})

	got, err := c.Attributes(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Size", got[0].Name)
	require.Len(t, got[0].Choices, 1)
	assert.Equal(t, "m", got[0].Choices[0].Slug)
}
