package handler

import (
	"net/http"

	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
)

// 件数を返す約束
type ShopperCounter interface {
	Len() int
}

type SubscriberCounter interface {
	Subscribers() int
}

// AdminHandler はスタッフ向けの稼働状況。
type AdminHandler struct {
	shoppers    ShopperCounter
	subscribers SubscriberCounter
}

// DI
func NewAdminHandler(shoppers ShopperCounter, subscribers SubscriberCounter) *AdminHandler {
	return &AdminHandler{shoppers: shoppers, subscribers: subscribers}
}

type StatsResponse struct {
	Shoppers    int `json:"shoppers"`
	Subscribers int `json:"subscribers"`
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo, shoppers middleware.ShopperSource) {
	g := e.Group("/admin")
	g.Use(middleware.RequireSession(shoppers))
	g.Use(middleware.StaffGuard())

	g.GET("/stats", h.stats)
}

func (h *AdminHandler) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, StatsResponse{
		Shoppers:    h.shoppers.Len(),
		Subscribers: h.subscribers.Subscribers(),
	})
}
