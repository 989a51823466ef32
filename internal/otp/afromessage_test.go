package otp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("tok", "sender-id", "AddisLearn")
	c.BaseURL = srv.URL
	return c
}

func TestSendChallenge(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"acknowledge":"success"}`))
	})

	if err := c.Send(context.Background(), "+251912345678"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/challenge" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if got := gotQuery["to"]; len(got) != 1 || got[0] != "+251912345678" {
		t.Fatalf("unexpected to param %v", got)
	}
}

func TestVerifyRejectsNonSuccessAck(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"acknowledge":"error"}`))
	})
	if err := c.Verify(context.Background(), "+251912345678", "123456"); err == nil {
		t.Fatal("expected non-success acknowledge to fail")
	}
}

func TestVerifyRejectsNon200(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	if err := c.Verify(context.Background(), "+251912345678", "123456"); err == nil {
		t.Fatal("expected non-200 to fail")
	}
}
