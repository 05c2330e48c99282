package commerce

import (
	"context"
	"strings"
)

// CreateToken はメールとパスワードでトークンを発行する。
// 資格情報の誤りは *FieldErrors で返る。
func (c *Client) CreateToken(ctx context.Context, email, password string) (TokenResult, error) {
	var data struct {
		TokenCreate struct {
			Token  *string      `json:"token"`
			User   *userPayload `json:"user"`
			Errors []FieldError `json:"errors"`
		} `json:"tokenCreate"`
	}

	vars := map[string]any{
		"email":    strings.TrimSpace(email),
		"password": password,
	}
	if err := c.do(ctx, tokenCreateDoc, vars, "", &data); err != nil {
		return TokenResult{}, err
	}

	res := data.TokenCreate
	if err := fieldErrors(tokenCreateDoc.Name, res.Errors); err != nil {
		return TokenResult{}, err
	}
	if res.Token == nil || *res.Token == "" || res.User == nil {
		return TokenResult{}, &FieldErrors{
			Op:     tokenCreateDoc.Name,
			Errors: []FieldError{{Message: "Invalid credentials"}},
		}
	}

	return TokenResult{Token: *res.Token, Identity: res.User.identity()}, nil
}
