// Package payment integrates the external Chapa payment gateway. The
// gateway is reached twice per paid enrollment: once to initialize a
// checkout session and once to independently verify the outcome that
// the unauthenticated callback claims.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gateway is the boundary the payment service depends on. Tests
// substitute a fake; production wires the Chapa client.
type Gateway interface {
	Initialize(ctx context.Context, req InitRequest) (*InitResponse, error)
	Verify(ctx context.Context, txRef string) (*VerifyResponse, error)
}

// InitRequest carries everything the gateway needs to open a checkout
// session for one payment attempt.
type InitRequest struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Email       string  `json:"email,omitempty"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	PhoneNumber string  `json:"phone_number"`
	TxRef       string  `json:"tx_ref"`
	CallbackURL string  `json:"callback_url"`
	Title       string  `json:"-"`
}

// InitResponse is the gateway's answer to Initialize. Status "success"
// means a checkout session exists at Data.CheckoutURL; anything else
// carries a human-readable Message.
type InitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

// Success reports whether the gateway accepted the initialization.
func (r *InitResponse) Success() bool { return r.Status == "success" }

// VerifyResponse is the gateway's authoritative statement about a
// transaction. Data.Status is the transaction outcome; Data.Reference
// is the gateway's own reference id.
type VerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
	} `json:"data"`
}

// Paid reports whether the gateway confirms the transaction succeeded.
func (r *VerifyResponse) Paid() bool { return r.Status == "success" }

const defaultBaseURL = "https://api.chapa.co"

// Client implements Gateway over the Chapa REST API.
type Client struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

// NewClient builds a Client with a bounded request timeout; a gateway
// timeout is treated as a provider failure by the caller.
func NewClient(secretKey string) *Client {
	return &Client{
		BaseURL:   defaultBaseURL,
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

// NewTxRef generates a fresh globally unique transaction reference.
// The reference is minted locally before the gateway call so retries
// after a gateway failure never reuse an old one.
func NewTxRef() string {
	return "tx-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Initialize opens a checkout session for the given payment attempt.
func (c *Client) Initialize(ctx context.Context, req InitRequest) (*InitResponse, error) {
	if req.Currency == "" {
		req.Currency = "ETB"
	}
	payload := map[string]any{
		"amount":       fmt.Sprintf("%.2f", req.Amount),
		"currency":     req.Currency,
		"first_name":   req.FirstName,
		"last_name":    req.LastName,
		"phone_number": req.PhoneNumber,
		"tx_ref":       req.TxRef,
		"callback_url": req.CallbackURL,
		"customization": map[string]string{
			"title":       req.Title,
			"description": "Payment for your course: " + req.Title,
		},
	}
	if req.Email != "" {
		payload["email"] = req.Email
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	var out InitResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify asks the gateway for the authoritative status of txRef.
func (c *Client) Verify(ctx context.Context, txRef string) (*VerifyResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/v1/transaction/verify/"+url.PathEscape(txRef), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.SecretKey)

	var out VerifyResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("payment gateway read: %w", err)
	}
	// Chapa returns 4xx with a JSON body on business failures; decode
	// regardless of status so the caller sees the gateway message.
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("payment gateway status %d: %w", resp.StatusCode, err)
	}
	return nil
}
