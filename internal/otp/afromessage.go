// Package otp integrates the external SMS one-time-password provider.
// The provider is treated as a black box behind the Provider interface;
// services depend on the interface so tests can substitute a fake.
package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Provider sends and verifies one-time passwords for a phone number.
// Phone numbers are passed in international (+251...) form.
type Provider interface {
	Send(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) error
}

const defaultBaseURL = "https://api.afromessage.com/api"

// Client talks to the AfroMessage challenge/verify HTTP API. Any
// non-200 response, or a 200 whose acknowledge field is not "success",
// counts as failure.
type Client struct {
	BaseURL  string
	Token    string // API bearer token
	SenderID string // registered sender identifier
	Sender   string // sender name shown on the SMS
	HTTP     *http.Client
}

// NewClient builds a Client with an explicit request timeout so a slow
// provider surfaces as a provider failure instead of hanging the
// inbound request.
func NewClient(token, senderID, sender string) *Client {
	return &Client{
		BaseURL:  defaultBaseURL,
		Token:    token,
		SenderID: senderID,
		Sender:   sender,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

// apiResponse is the envelope every AfroMessage endpoint returns.
type apiResponse struct {
	Acknowledge string `json:"acknowledge"`
}

// Send asks the provider to deliver a challenge code to phone.
func (c *Client) Send(ctx context.Context, phone string) error {
	q := url.Values{}
	q.Set("from", c.SenderID)
	q.Set("sender", c.Sender)
	q.Set("to", phone)
	q.Set("len", "6")
	q.Set("t", "0")
	q.Set("ttl", "300")
	return c.get(ctx, "/challenge", q)
}

// Verify checks a previously delivered code for phone.
func (c *Client) Verify(ctx context.Context, phone, code string) error {
	q := url.Values{}
	q.Set("to", phone)
	q.Set("code", code)
	return c.get(ctx, "/verify", q)
}

func (c *Client) get(ctx context.Context, path string, q url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("otp provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("otp provider read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("otp provider status %d", resp.StatusCode)
	}
	var ack apiResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return fmt.Errorf("otp provider decode: %w", err)
	}
	if ack.Acknowledge != "success" {
		return fmt.Errorf("otp provider rejected request: %s", ack.Acknowledge)
	}
	return nil
}
