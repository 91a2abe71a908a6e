package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glowcart-dev/glowcart/internal/authflow"
	"github.com/glowcart-dev/glowcart/internal/session"
)

// mockRegisterServer walks the verify-then-register handshake
func mockRegisterServer(t *testing.T, code string) *httptest.Server {
	t.Helper()

	verified := false
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/email/verify-otp":
			var req struct {
				Email string `json:"email"`
				Code  string `json:"code"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if req.Code != code {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Incorrect verification code"})
				return
			}
			verified = true
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"email": req.Email, "verified": true, "purpose": "register", "email_token": "email-jwt",
			})
		case "/api/users/register":
			if !verified {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email has not been verified"})
				return
			}
			var req struct {
				Email string `json:"email"`
				Name  string `json:"name"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			writeJSON(w, http.StatusCreated, map[string]interface{}{
				"token": "fresh-jwt",
				"user": map[string]interface{}{
					"id": "user-9", "email": req.Email, "name": req.Name, "role": "USER",
				},
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestRunRegister(t *testing.T) {
	server := mockRegisterServer(t, "123456")
	defer server.Close()

	env, tokens, out := newTestEnv(t, server.URL)

	err := runRegister(env, "new@glowcart.dev", "New Shopper", "sunny1day", "123456")
	if err != nil {
		t.Fatalf("runRegister failed: %v", err)
	}

	if tokens.tokens[server.URL] != "fresh-jwt" {
		t.Error("expected token to be saved after registration")
	}

	sess := env.Sessions.Current()
	if sess.UserID != "user-9" || sess.Role != session.RoleUser {
		t.Errorf("unexpected session after registration: %+v", sess)
	}
	if env.Flow.Stage() != authflow.StageNone {
		t.Errorf("expected StageNone after registration, got %v", env.Flow.Stage())
	}
	if !strings.Contains(out.String(), "Account created") {
		t.Errorf("expected confirmation, got:\n%s", out.String())
	}
}

func TestRunRegisterWrongCode(t *testing.T) {
	server := mockRegisterServer(t, "123456")
	defer server.Close()

	env, tokens, _ := newTestEnv(t, server.URL)

	err := runRegister(env, "new@glowcart.dev", "New Shopper", "sunny1day", "999999")
	if err == nil || !strings.Contains(err.Error(), "verification failed") {
		t.Fatalf("expected verification failure, got: %v", err)
	}

	if len(tokens.tokens) != 0 {
		t.Error("no token should be saved on failed verification")
	}
	if env.Sessions.Current().IsAuthenticated() {
		t.Error("session should stay guest")
	}
}
