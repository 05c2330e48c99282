package commerce

import (
	"context"
	"strings"
)

// Products は一覧を返す。
func (c *Client) Products(ctx context.Context, first int) ([]Product, error) {
	if first <= 0 || first > 100 {
		first = 100
	}

	var data struct {
		Products struct {
			Edges []struct {
				Node Product `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	vars := map[string]any{"first": first}
	if c.Channel != "" {
		vars["channel"] = c.Channel
	}
	if err := c.do(ctx, productsDoc, vars, "", &data); err != nil {
		return nil, err
	}

	out := make([]Product, 0, len(data.Products.Edges))
	for _, e := range data.Products.Edges {
		out = append(out, e.Node)
	}
	return out, nil
}

// Product はslugで1件返す。無ければ ErrProductNotFound。
func (c *Client) Product(ctx context.Context, slug string) (Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Product{}, ErrProductNotFound
	}

	var data struct {
		Product *Product `json:"product"`
	}
	vars := map[string]any{"slug": slug}
	if c.Channel != "" {
		vars["channel"] = c.Channel
	}
	if err := c.do(ctx, productDoc, vars, "", &data); err != nil {
		return Product{}, err
	}
	if data.Product == nil {
		return Product{}, ErrProductNotFound
	}
	return *data.Product, nil
}

// Attributes は絞り込み用の属性一覧。
func (c *Client) Attributes(ctx context.Context, first int) ([]Attribute, error) {
	if first <= 0 || first > 100 {
		first = 10
	}

	type choiceEdge struct {
		Node AttributeChoice `json:"node"`
	}
	var data struct {
		Attributes struct {
			Edges []struct {
				Node struct {
					ID        string `json:"id"`
					Name      string `json:"name"`
					Slug      string `json:"slug"`
					InputType string `json:"inputType"`
					Choices   *struct {
						Edges []choiceEdge `json:"edges"`
					} `json:"choices"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"attributes"`
	}
	if err := c.do(ctx, attributesDoc, map[string]any{"first": first}, "", &data); err != nil {
		return nil, err
	}

	out := make([]Attribute, 0, len(data.Attributes.Edges))
	for _, e := range data.Attributes.Edges {
		a := Attribute{ID: e.Node.ID, Name: e.Node.Name, Slug: e.Node.Slug, InputType: e.Node.InputType}
		if e.Node.Choices != nil {
			for _, ce := range e.Node.Choices.Edges {
				a.Choices = append(a.Choices, ce.Node)
			}
		}
		out = append(out, a)
	}
	return out, nil
}
