package server

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Handlers はルート登録に必要なもの一式。
type Handlers struct {
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Auth     *handler.AuthHandler
	Checkout *handler.CheckoutHandler
	Events   *handler.EventsHandler
	Admin    *handler.AdminHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers, shoppers middleware.ShopperSource) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Product.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e)
	h.Events.RegisterRoutes(e)
	h.Checkout.RegisterRoutes(e, shoppers)
	if h.Admin != nil {
		h.Admin.RegisterRoutes(e, shoppers)
	}
}
