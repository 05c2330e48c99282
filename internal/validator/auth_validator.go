package validator

import (
	"context"
	"regexp"
	"strings"

	"storefront/internal/usecase"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type authValidator struct{}

// Usecaseは interface を依存注入
func NewAuthValidator() usecase.AuthValidator {
	return &authValidator{}
}

// ログインの入力を検証（項目ごとのエラーを返す）
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	fields := map[string]string{}
	email = strings.TrimSpace(email)

	// email
	switch {
	case email == "":
		fields["email"] = "Email is required"
	case !isEmailLike(email):
		fields["email"] = "Email is invalid"
	}

	// password
	if password == "" {
		fields["password"] = "Password is required"
	}

	return usecase.NewValidationError(fields)
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailPattern.MatchString(s)
}
