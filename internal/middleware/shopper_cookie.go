package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	ShopperCookieName = "shopper_id"
	CtxShopperIDKey   = "shopper_id" // string

	shopperCookieTTL = 365 * 24 * time.Hour
)

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// ShopperCookie は shopper_id cookie を読み、無ければ発行する。
// UUIDとして読めない値は作り直し、{...} や urn:uuid: 形式は標準形にそろえる。
func ShopperCookie(secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ""
			if ck, err := c.Cookie(ShopperCookieName); err == nil {
				raw = strings.TrimSpace(ck.Value)
			}

			id := uuid.NewString()
			if parsed, err := uuid.Parse(raw); err == nil {
				id = parsed.String()
			}

			if id != raw {
				c.SetCookie(&http.Cookie{
					Name:     ShopperCookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(shopperCookieTTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			//contextへ保存
			c.Set(CtxShopperIDKey, id)
			return next(c)
		}
	}
}

// ShopperID は ShopperCookie が入れた値を取り出す。
func ShopperID(c echo.Context) (string, bool) {
	id, ok := c.Get(CtxShopperIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
