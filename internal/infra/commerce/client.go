package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Client はコマースAPI（GraphQL）のクライアント。
type Client struct {
	Endpoint string
	Channel  string
	HTTP     *http.Client
	log      logrus.FieldLogger

	mu        sync.Mutex
	checkouts map[string]string // shopperID -> checkoutID
}

func NewClient(endpoint, channel string, timeout time.Duration, log logrus.FieldLogger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		Endpoint:  strings.TrimSpace(endpoint),
		Channel:   strings.TrimSpace(channel),
		HTTP:      &http.Client{Timeout: timeout},
		log:       log,
		checkouts: map[string]string{},
	}
}

type gqlRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors,omitempty"`
}

// do は1操作を送って data を out に読み込む。
// token が空でなければ Bearer で送る。
func (c *Client) do(ctx context.Context, doc Document, vars map[string]any, token string, out any) error {
	if c == nil || c.Endpoint == "" || c.HTTP == nil {
		return ErrNotConfigured
	}

	body, err := json.Marshal(gqlRequest{
		Query:         doc.Query,
		Variables:     vars,
		OperationName: doc.Name,
	})
	if err != nil {
		return fmt.Errorf("commerce: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("commerce: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("commerce: http do: %w", err)
	}
	defer resp.Body.Close()

	if c.log != nil {
		c.log.WithFields(logrus.Fields{
			"operation": doc.Name,
			"status":    resp.StatusCode,
			"elapsed":   time.Since(start).String(),
		}).Debug("commerce request")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode}
	}

	var gr gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return fmt.Errorf("commerce: decode response: %w", err)
	}
	if len(gr.Errors) > 0 {
		errs := make([]FieldError, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			errs = append(errs, FieldError{Message: e.Message})
		}
		return &FieldErrors{Op: doc.Name, Errors: errs}
	}

	if out != nil && len(gr.Data) > 0 {
		if err := json.Unmarshal(gr.Data, out); err != nil {
			return fmt.Errorf("commerce: unmarshal data: %w", err)
		}
	}
	return nil
}

// CheckoutID は記憶しているチェックアウトID。
func (c *Client) CheckoutID(shopperID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.checkouts[shopperID]
	return id, ok
}

func (c *Client) rememberCheckout(shopperID, checkoutID string) {
	if shopperID == "" || checkoutID == "" {
		return
	}
	c.mu.Lock()
	c.checkouts[shopperID] = checkoutID
	c.mu.Unlock()
}

// ForgetCheckout はチェックアウトIDを忘れる（注文後・ログアウト時）。
func (c *Client) ForgetCheckout(shopperID string) {
	c.mu.Lock()
	delete(c.checkouts, shopperID)
	c.mu.Unlock()
}
