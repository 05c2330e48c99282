package commerce

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Document はパース済みのGraphQL操作。
type Document struct {
	Name      string
	Operation ast.Operation
	Query     string
}

// ParseDocument は操作がちょうど1つの文書だけを受け付ける。
func ParseDocument(name, query string) (Document, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: name, Input: query})
	if err != nil {
		return Document{}, fmt.Errorf("commerce: parse %s: %w", name, err)
	}
	if len(doc.Operations) != 1 {
		return Document{}, fmt.Errorf("commerce: %s: want 1 operation, got %d", name, len(doc.Operations))
	}

	op := doc.Operations[0]
	return Document{
		Name:      op.Name,
		Operation: op.Operation,
		Query:     query,
	}, nil
}

func mustParse(name, query string) Document {
	d, err := ParseDocument(name, query)
	if err != nil {
		panic(err)
	}
	return d
}

const checkoutFields = `
      checkout {
        id
        token
        lines {
          id
          quantity
          variant {
            id
            name
            product {
              id
              name
              slug
              thumbnail {
                url
              }
            }
            pricing {
              price {
                gross {
                  amount
                  currency
                }
              }
            }
          }
        }
      }
      errors {
        field
        message
      }`

var (
	tokenCreateDoc = mustParse("tokenCreate", `
mutation TokenCreate($email: String!, $password: String!) {
  tokenCreate(email: $email, password: $password) {
    token
    user {
      email
      isStaff
      userPermissions {
        code
      }
    }
    errors {
      field
      message
    }
  }
}`)

	checkoutCreateDoc = mustParse("checkoutCreate", `
mutation AddToCart($input: CheckoutCreateInput!) {
  checkoutCreate(input: $input) {`+checkoutFields+`
  }
}`)

	checkoutLinesAddDoc = mustParse("checkoutLinesAdd", `
mutation AddToExistingCart($checkoutId: ID!, $lines: [CheckoutLineInput!]!) {
  checkoutLinesAdd(checkoutId: $checkoutId, lines: $lines) {`+checkoutFields+`
  }
}`)

	productsDoc = mustParse("products", `
query GetProducts($first: Int!, $channel: String) {
  products(first: $first, channel: $channel) {
    edges {
      node {
        id
        name
        slug
        variants {
          id
          name
          sku
        }
        media {
          url
        }
      }
    }
  }
}`)

	productDoc = mustParse("product", `
query GetProduct($slug: String, $channel: String) {
  product(slug: $slug, channel: $channel) {
    id
    name
    slug
    description
    seoTitle
    seoDescription
    defaultVariant {
      id
      name
      sku
      pricing {
        price {
          gross {
            amount
            currency
          }
        }
      }
    }
    variants {
      id
      name
      sku
      pricing {
        price {
          gross {
            amount
            currency
          }
        }
      }
    }
    media {
      id
      url
      alt
      type
    }
    category {
      id
      name
      slug
    }
    isAvailableForPurchase
  }
}`)

	attributesDoc = mustParse("attributes", `
query GetAttributes($first: Int!) {
  attributes(first: $first) {
    edges {
      node {
        id
        name
        slug
        inputType
        choices(first: 10) {
          edges {
            node {
              id
              name
              slug
            }
          }
        }
      }
    }
  }
}`)
)
