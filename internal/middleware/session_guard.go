package middleware

import (
	"context"
	"net/http"

	"storefront/internal/store"

	"github.com/labstack/echo/v4"
)

const CtxShopperKey = "shopper" // *store.Shopper

// ショッパーのストア一式を取り出す約束
type ShopperSource interface {
	Get(ctx context.Context, shopperID string) (*store.Shopper, error)
}

// RequireSession はログイン済みのショッパーだけ通す。
func RequireSession(src ShopperSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := ShopperID(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			s, err := src.Get(c.Request().Context(), id)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, errorJSON("storage error"))
			}

			//トークンとユーザーが揃っていなければ401
			if !s.Auth.IsAuthenticated() {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxShopperKey, s)
			return next(c)
		}
	}
}

// StaffGuard はスタッフだけ通す。RequireSession の後に置く。
func StaffGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := c.Get(CtxShopperKey).(*store.Shopper)
			if !ok || s == nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//一般ユーザーは拒否
			id := s.Auth.State().Session.Identity
			if id == nil || !id.IsStaff {
				return c.JSON(http.StatusForbidden, errorJSON("staff only"))
			}

			return next(c)
		}
	}
}
