package commerce

import (
	"context"
	"strings"
)

type checkoutPayload struct {
	Checkout *Checkout   `json:"checkout"`
	Errors   []FieldError `json:"errors"`
}

func (p checkoutPayload) result(op string) (Checkout, error) {
	if err := fieldErrors(op, p.Errors); err != nil {
		return Checkout{}, err
	}
	if p.Checkout == nil {
		return Checkout{}, &FieldErrors{Op: op, Errors: []FieldError{{Message: "no checkout returned"}}}
	}
	return *p.Checkout, nil
}

// CreateCheckout は新しいチェックアウトを作る。
func (c *Client) CreateCheckout(ctx context.Context, token, email string, lines []CheckoutLine) (Checkout, error) {
	if len(lines) == 0 {
		return Checkout{}, ErrEmptyLines
	}

	input := map[string]any{"lines": lines}
	if c.Channel != "" {
		input["channel"] = c.Channel
	}
	if email = strings.TrimSpace(email); email != "" {
		input["email"] = email
	}

	var data struct {
		CheckoutCreate checkoutPayload `json:"checkoutCreate"`
	}
	if err := c.do(ctx, checkoutCreateDoc, map[string]any{"input": input}, token, &data); err != nil {
		return Checkout{}, err
	}
	return data.CheckoutCreate.result(checkoutCreateDoc.Name)
}

// AddCheckoutLines は既存のチェックアウトに明細を足す。
func (c *Client) AddCheckoutLines(ctx context.Context, token, checkoutID string, lines []CheckoutLine) (Checkout, error) {
	if len(lines) == 0 {
		return Checkout{}, ErrEmptyLines
	}

	var data struct {
		CheckoutLinesAdd checkoutPayload `json:"checkoutLinesAdd"`
	}
	vars := map[string]any{"checkoutId": checkoutID, "lines": lines}
	if err := c.do(ctx, checkoutLinesAddDoc, vars, token, &data); err != nil {
		return Checkout{}, err
	}
	return data.CheckoutLinesAdd.result(checkoutLinesAddDoc.Name)
}

// SubmitLines はショッパーのチェックアウトに明細を送る。
// 初回は作成し、以降は記憶したIDに追加する。
// 追加が失敗したら作り直す。
func (c *Client) SubmitLines(ctx context.Context, shopperID, token, email string, lines []CheckoutLine) (Checkout, error) {
	if id, ok := c.CheckoutID(shopperID); ok {
		co, err := c.AddCheckoutLines(ctx, token, id, lines)
		if err == nil {
			return co, nil
		}
		if c.log != nil {
			c.log.WithField("shopper_id", shopperID).WithError(err).
				Warn("commerce: add to existing checkout failed, creating new one")
		}
		c.ForgetCheckout(shopperID)
	}

	co, err := c.CreateCheckout(ctx, token, email, lines)
	if err != nil {
		return Checkout{}, err
	}
	c.rememberCheckout(shopperID, co.ID)
	return co, nil
}
