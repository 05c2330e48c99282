package handler

import (
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Price       int64          `json:"price"`
	Quantity    int64          `json:"quantity"`
	Image       string         `json:"image"`
	Variant     *model.Variant `json:"variant"`
	ProductSlug string         `json:"product_slug"`
	VariantID   string         `json:"variant_id"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// /cart, /cart/items/{id} を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/cart")

	g.GET("", h.getCart)
	g.DELETE("", h.clear)
	g.GET("/badge", h.badge)
	g.POST("/items", h.addItem)
	g.GET("/items/:id", h.getItem)
	g.PATCH("/items/:id", h.patchItem)
	g.DELETE("/items/:id", h.deleteItem)
	g.POST("/toggle", h.visibility(usecase.VisibilityToggle))
	g.POST("/open", h.visibility(usecase.VisibilityOpen))
	g.POST("/close", h.visibility(usecase.VisibilityClose))
}

func (h *CartHandler) getCart(c echo.Context) error {
	shopperID, ok := getShopperIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "shopper id required"})
	}

	out, err := h.uc.GetCart(c.Request().Context(), shopperID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	shopperID, ok := getShopperIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "shopper id required"})
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), shopperID, usecase.AddCartInput{
		ID:          req.ID,
		Name:        req.Name,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Image:       req.Image,
		Variant:     req.Variant,
		ProductSlug: req.ProductSlug,
		VariantID:   req.VariantID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) getItem(c echo.Context) error {
	shopperID, ok := getShopperIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "shopper id required"})
	}

	out, err := h.uc.GetCartItem(c.Request().Context(), shopperID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	shopperID, ok := getShopperIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "shopper id required"})
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateCartItem(c.Request().Context(), shopperID, c.Param("id"), req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	shopperID, ok := getShopperIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "shopper id required"})
	}

	out, err := h.uc.DeleteCartItem(c.Request().Context(), shopperID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	shopperID, ok := getShopperIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "shopper id required"})
	}

	out, err := h.uc.ClearCart(c.Request().Context(), shopperID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) badge(c echo.Context) error {
	shopperID, ok := getShopperIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "shopper id required"})
	}

	out, err := h.uc.Badge(c.Request().Context(), shopperID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) visibility(v usecase.Visibility) echo.HandlerFunc {
	return func(c echo.Context) error {
		shopperID, ok := getShopperIDFromContext(c)
		if !ok {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "shopper id required"})
		}

		out, err := h.uc.SetVisibility(c.Request().Context(), shopperID, v)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}
}
