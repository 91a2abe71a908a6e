package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glowcart-dev/glowcart/internal/authflow"
	"github.com/glowcart-dev/glowcart/internal/cli/client"
	"github.com/glowcart-dev/glowcart/internal/session"
)

// mockTokenStore is a simple in-memory token store for testing
type mockTokenStore struct {
	tokens map[string]string
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{
		tokens: make(map[string]string),
	}
}

func (m *mockTokenStore) SaveToken(server, token string) error {
	m.tokens[server] = token
	return nil
}

func (m *mockTokenStore) LoadToken(server string) (string, error) {
	token, exists := m.tokens[server]
	if !exists {
		return "", fmt.Errorf("not logged in. Please run 'glowcart login' first")
	}
	return token, nil
}

func (m *mockTokenStore) DeleteToken(server string) error {
	delete(m.tokens, server)
	return nil
}

// newTestEnv builds an Env against a mock server with throwaway local state
func newTestEnv(t *testing.T, serverURL string) (*Env, *mockTokenStore, *bytes.Buffer) {
	t.Helper()

	store := session.NewStoreAt(filepath.Join(t.TempDir(), "session.json"))
	tokens := newMockTokenStore()
	out := &bytes.Buffer{}

	return &Env{
		Server:   serverURL,
		API:      client.New(serverURL),
		Sessions: store,
		Flow:     authflow.New(store),
		Tokens:   tokens,
		Out:      out,
	}, tokens, out
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// mockLoginServer accepts exactly one email/password pair
func mockLoginServer(t *testing.T, email, password string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != "POST" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if req.Email != email || req.Password != password {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token": "test-jwt-token",
			"user": map[string]interface{}{
				"id":    "user-1",
				"email": email,
				"name":  "Test Shopper",
				"role":  "USER",
			},
		})
	}))
}

func TestRunLoginSuccess(t *testing.T) {
	server := mockLoginServer(t, "shopper@glowcart.dev", "sunny1day")
	defer server.Close()

	env, tokens, out := newTestEnv(t, server.URL)

	if err := runLogin(env, "shopper@glowcart.dev", "sunny1day"); err != nil {
		t.Fatalf("runLogin failed: %v", err)
	}

	// Token stored for the server
	if tokens.tokens[server.URL] != "test-jwt-token" {
		t.Errorf("expected token to be saved, got %q", tokens.tokens[server.URL])
	}

	// Session persisted with the full identity
	sess := env.Sessions.Current()
	if !sess.IsAuthenticated() {
		t.Fatal("expected an authenticated session after login")
	}
	if sess.UserID != "user-1" || sess.Role != session.RoleUser {
		t.Errorf("unexpected session: %+v", sess)
	}

	// The flow returned to rest and the success callback ran
	if env.Flow.Stage() != authflow.StageNone {
		t.Errorf("expected StageNone after login, got %v", env.Flow.Stage())
	}
	if !strings.Contains(out.String(), "Login successful") {
		t.Errorf("expected success message, got:\n%s", out.String())
	}
}

func TestRunLoginFailureKeepsState(t *testing.T) {
	server := mockLoginServer(t, "shopper@glowcart.dev", "sunny1day")
	defer server.Close()

	env, tokens, out := newTestEnv(t, server.URL)

	err := runLogin(env, "shopper@glowcart.dev", "wrong-password")
	if err == nil {
		t.Fatal("expected login to fail")
	}
	if !strings.Contains(err.Error(), "Invalid email or password") {
		t.Errorf("expected backend message in error, got: %v", err)
	}

	// No token, no session, the login step stays open for retry
	if len(tokens.tokens) != 0 {
		t.Error("no token should be saved on failure")
	}
	if env.Sessions.Current().IsAuthenticated() {
		t.Error("session should stay guest on failure")
	}
	if env.Flow.Stage() != authflow.StageLogin {
		t.Errorf("expected StageLogin after failed attempt, got %v", env.Flow.Stage())
	}
	if strings.Contains(out.String(), "Login successful") {
		t.Error("success callback must not run on failure")
	}
}

func TestRunLoginRequiresEmail(t *testing.T) {
	env, _, _ := newTestEnv(t, "http://unused")

	err := runLogin(env, "", "password1")
	if err == nil || !strings.Contains(err.Error(), "email is required") {
		t.Errorf("expected email requirement error, got: %v", err)
	}
}

func TestRunLogout(t *testing.T) {
	logoutCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/logout" {
			logoutCalled = true
			writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	env, tokens, _ := newTestEnv(t, server.URL)
	tokens.tokens[server.URL] = "test-jwt-token"
	if err := env.Sessions.Save(session.Session{UserID: "user-1", Email: "a@b.co", Role: session.RoleUser}); err != nil {
		t.Fatal(err)
	}

	if err := runLogout(env); err != nil {
		t.Fatalf("runLogout failed: %v", err)
	}

	if !logoutCalled {
		t.Error("expected server-side logout call")
	}
	if len(tokens.tokens) != 0 {
		t.Error("token should be deleted")
	}
	if env.Sessions.Current().IsAuthenticated() {
		t.Error("local session should be cleared")
	}
}

func TestRunLogoutWithoutToken(t *testing.T) {
	// Logging out while not logged in still clears local state
	env, _, out := newTestEnv(t, "http://unused")

	if err := runLogout(env); err != nil {
		t.Fatalf("runLogout failed: %v", err)
	}
	if !strings.Contains(out.String(), "Logged out") {
		t.Errorf("expected confirmation, got:\n%s", out.String())
	}
}

func TestRunWhoami(t *testing.T) {
	env, _, out := newTestEnv(t, "http://unused")

	// Guest
	if err := runWhoami(env); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "guest") {
		t.Errorf("expected guest output, got:\n%s", out.String())
	}

	// Authenticated but offline: falls back to the cached session
	if err := env.Sessions.Save(session.Session{UserID: "user-1", Email: "a@b.co", Role: session.RoleUser}); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := runWhoami(env); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "a@b.co") || !strings.Contains(out.String(), "cached") {
		t.Errorf("expected cached session output, got:\n%s", out.String())
	}
}
