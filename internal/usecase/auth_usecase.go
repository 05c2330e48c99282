package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/infra/commerce"
	"storefront/internal/store"

	"github.com/sirupsen/logrus"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgLoginFailed        = "Login failed. Please try again."
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateLogin(ctx context.Context, email string, password string) error
}

// コマースAPIでトークンを発行する約束
type TokenIssuer interface {
	CreateToken(ctx context.Context, email, password string) (commerce.TokenResult, error)
}

// ログアウト時にチェックアウトIDを忘れる約束
type CheckoutForgetter interface {
	ForgetCheckout(shopperID string)
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse は /auth/me などが返す形。
type SessionResponse struct {
	IsAuthenticated bool            `json:"is_authenticated"`
	User            *model.Identity `json:"user,omitempty"`
	IsLoading       bool            `json:"is_loading"`
	Error           string          `json:"error,omitempty"`
}

type AuthUsecase struct {
	shoppers  ShopperSource
	validator AuthValidator
	tokens    TokenIssuer
	checkouts CheckoutForgetter
	log       logrus.FieldLogger
}

// DI
func NewAuthUsecase(
	shoppers ShopperSource,
	validator AuthValidator,
	tokens TokenIssuer,
	checkouts CheckoutForgetter,
	log logrus.FieldLogger,
) *AuthUsecase {
	return &AuthUsecase{
		shoppers:  shoppers,
		validator: validator,
		tokens:    tokens,
		checkouts: checkouts,
		log:       log,
	}
}

// Login は資格情報をコマースAPIに送り、成功したらセッションを設定する。
// ゲストカートの統合は AuthStore が裏で始める。
func (u *AuthUsecase) Login(ctx context.Context, shopperID string, in AuthLoginRequest) (SessionResponse, error) {
	if u.validator != nil {
		if err := u.validator.ValidateLogin(ctx, in.Email, in.Password); err != nil {
			return SessionResponse{}, err
		}
	}

	s, err := loadShopper(ctx, u.shoppers, u.log, shopperID)
	if err != nil {
		return SessionResponse{}, err
	}
	auth := s.Auth

	auth.SetLoading(true)
	defer auth.SetLoading(false)
	auth.ClearError()

	res, err := u.tokens.CreateToken(ctx, strings.TrimSpace(in.Email), in.Password)
	if err != nil {
		var fe *commerce.FieldErrors
		if errors.As(err, &fe) {
			msg := fe.First()
			if msg == "" {
				msg = msgInvalidCredentials
			}
			auth.SetError(msg)
			return SessionResponse{}, NewHTTPError(http.StatusUnauthorized, msg)
		}

		u.log.WithFields(logrus.Fields{"shopper_id": shopperID, "error": err}).Warn("token create failed")
		auth.SetError(msgLoginFailed)
		return SessionResponse{}, NewHTTPError(http.StatusBadGateway, msgLoginFailed)
	}

	err = auth.Login(ctx, res.Token, res.Identity)
	if errors.Is(err, store.ErrInvalidSession) {
		auth.SetError(msgInvalidCredentials)
		return SessionResponse{}, NewHTTPError(http.StatusUnauthorized, msgInvalidCredentials)
	}
	warnPersist(u.log, shopperID, "auth.login", err)

	u.log.WithFields(logrus.Fields{"shopper_id": shopperID, "email": res.Identity.Email}).Info("login")
	return sessionResponse(auth.State(), false), nil
}

// Logout はセッションを消す。カートはそのまま残る。
func (u *AuthUsecase) Logout(ctx context.Context, shopperID string) (SessionResponse, error) {
	s, err := loadShopper(ctx, u.shoppers, u.log, shopperID)
	if err != nil {
		return SessionResponse{}, err
	}

	warnPersist(u.log, shopperID, "auth.logout", s.Auth.Logout(ctx))
	if u.checkouts != nil {
		u.checkouts.ForgetCheckout(shopperID)
	}
	return sessionResponse(s.Auth.State(), false), nil
}

func (u *AuthUsecase) Me(ctx context.Context, shopperID string) (SessionResponse, error) {
	s, err := loadShopper(ctx, u.shoppers, u.log, shopperID)
	if err != nil {
		return SessionResponse{}, err
	}
	return sessionResponse(s.Auth.State(), true), nil
}

func sessionResponse(st store.AuthState, withError bool) SessionResponse {
	out := SessionResponse{
		IsAuthenticated: st.IsAuthenticated,
		User:            st.Session.Identity,
		IsLoading:       st.IsLoading,
	}
	if withError {
		out.Error = st.Error
	}
	return out
}
