package client

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIErrorCarriesBackendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": "An account with this email already exists"}`))
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.Register("dup@glowcart.dev", "Dup", "sunny1day")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("expected status 409, got %d", apiErr.Status)
	}
	if apiErr.Message != "An account with this email already exists" {
		t.Errorf("unexpected message: %q", apiErr.Message)
	}
}

func TestAPIErrorNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	c := New(server.URL)
	err := c.SendOTP("a@b.co")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message != "upstream unavailable" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestAuthorizationHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer my-jwt" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "user-1", "email": "a@b.co", "name": "A", "role": "USER"}`))
	}))
	defer server.Close()

	c := New(server.URL)
	user, err := c.Me("my-jwt")
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if user.Role != "USER" {
		t.Errorf("unexpected user: %+v", user)
	}
}
