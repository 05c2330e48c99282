package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ExpiryInspector はコマースAPIが発行したトークンの期限を読む。
// 署名鍵は持っていないので検証はせず、expだけを見る。
type ExpiryInspector struct {
	// 期限の少し前を期限切れとみなす余裕
	Leeway time.Duration
}

func NewExpiryInspector(leeway time.Duration) *ExpiryInspector {
	return &ExpiryInspector{Leeway: leeway}
}

// ExpiresAt はexpを返す。JWTでない、またはexpが無ければ ok=false。
func (i *ExpiryInspector) ExpiresAt(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ".") != 2 {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}

	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), true
	case int64:
		return time.Unix(exp, 0), true
	default:
		return time.Time{}, false
	}
}

// Expired は期限切れか。期限が読めないトークンは期限切れにしない。
func (i *ExpiryInspector) Expired(raw string, now time.Time) bool {
	exp, ok := i.ExpiresAt(raw)
	if !ok {
		return false
	}
	return !now.Add(i.Leeway).Before(exp)
}
