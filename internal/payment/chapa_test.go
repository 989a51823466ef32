package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("sk_test")
	c.BaseURL = srv.URL
	return c
}

func TestInitializeSendsCheckoutPayload(t *testing.T) {
	var gotAuth string
	var payload map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/transaction/initialize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"status":"success","data":{"checkout_url":"https://checkout.example/x"}}`))
	})

	resp, err := c.Initialize(context.Background(), InitRequest{
		Amount:      149.5,
		FirstName:   "Abebe",
		LastName:    "Kebede",
		PhoneNumber: "0912345678",
		TxRef:       "tx-abc",
		CallbackURL: "https://api.example.com/cb",
		Title:       "Go Basics",
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !resp.Success() || resp.Data.CheckoutURL != "https://checkout.example/x" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotAuth != "Bearer sk_test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if payload["amount"] != "149.50" {
		t.Fatalf("amount should be a two-decimal string, got %v", payload["amount"])
	}
	if payload["currency"] != "ETB" {
		t.Fatalf("expected default ETB currency, got %v", payload["currency"])
	}
	if _, present := payload["email"]; present {
		t.Fatal("empty email must be omitted")
	}
}

func TestInitializeBusinessFailureDecoded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"failed","message":"invalid amount"}`))
	})

	resp, err := c.Initialize(context.Background(), InitRequest{TxRef: "tx-a"})
	if err != nil {
		t.Fatalf("Initialize should decode 4xx bodies: %v", err)
	}
	if resp.Success() {
		t.Fatal("expected failure status")
	}
	if resp.Message != "invalid amount" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestVerifyFetchesByTxRef(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/transaction/verify/tx-abc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"success","data":{"status":"success","reference":"ref-9"}}`))
	})

	resp, err := c.Verify(context.Background(), "tx-abc")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !resp.Paid() || resp.Data.Reference != "ref-9" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestNewTxRefShape(t *testing.T) {
	ref := NewTxRef()
	if !strings.HasPrefix(ref, "tx-") {
		t.Fatalf("expected tx- prefix, got %s", ref)
	}
	if strings.Contains(ref[3:], "-") {
		t.Fatalf("expected dashes stripped, got %s", ref)
	}
	if len(ref) != 3+32 {
		t.Fatalf("unexpected length %d", len(ref))
	}
}
