package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/glowcart-dev/glowcart/internal/auth"
	"github.com/glowcart-dev/glowcart/internal/config"
	"github.com/glowcart-dev/glowcart/internal/gate"
	"github.com/glowcart-dev/glowcart/internal/models"
	"github.com/glowcart-dev/glowcart/internal/tasks"
)

// fakeEnqueuer captures enqueued tasks instead of talking to Redis
type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "fake", Type: task.Type(), Queue: "default"}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeEnqueuer) {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "test.sqlite")},
		Redis:    config.RedisConfig{Address: "localhost:6379"},
	}
	srv, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)

	fake := &fakeEnqueuer{}
	srv.enqueuer = fake
	return srv, fake
}

// request performs an HTTP request against the router and decodes the JSON
// response body into out (skipped when out is nil)
func request(t *testing.T, srv *Server, method, path string, body interface{}, out interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// createUser inserts a user with the given role directly and returns the
// user together with a valid token
func createUser(t *testing.T, srv *Server, email, password, roleName string) (*models.User, string) {
	t.Helper()

	role, err := models.RoleByName(srv.db, roleName)
	require.NoError(t, err)

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test " + roleName,
		RoleID:       role.ID,
	}
	require.NoError(t, srv.db.Create(user).Error)
	user.Role = *role

	token, err := auth.GenerateToken(user.ID, user.Email, role.Name)
	require.NoError(t, err)
	return user, token
}

func seedItem(t *testing.T, srv *Server, name string, priceCents int64, inStock bool) models.Item {
	t.Helper()
	item := models.Item{Name: name, PriceCents: priceCents, Currency: "USD", InStock: inStock}
	require.NoError(t, srv.db.Create(&item).Error)
	return item
}

// lastOTPCode digs the plaintext code out of the captured email task
func lastOTPCode(t *testing.T, fake *fakeEnqueuer) string {
	t.Helper()
	require.NotEmpty(t, fake.tasks)
	task := fake.tasks[len(fake.tasks)-1]
	require.Equal(t, tasks.TypeSendOTPEmail, task.Type())
	payload, err := tasks.ParseOTPEmailPayload(task)
	require.NoError(t, err)
	return payload.Code
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp map[string]interface{}
	rec := request(t, srv, "GET", "/health", nil, &resp, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "online", resp["status"])
	require.Equal(t, "glowcart-api", resp["service"])
}

func TestRegisterFlow(t *testing.T) {
	srv, fake := newTestServer(t)

	// Request an OTP for a fresh email
	rec := request(t, srv, "POST", "/api/email/send-otp", map[string]string{
		"email": "new@glowcart.dev",
	}, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	code := lastOTPCode(t, fake)
	require.Len(t, code, 6)

	// Verify it
	var verifyResp VerifyOTPResponse
	rec = request(t, srv, "POST", "/api/email/verify-otp", map[string]string{
		"email": "new@glowcart.dev",
		"code":  code,
	}, &verifyResp, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, verifyResp.Verified)
	require.NotEmpty(t, verifyResp.EmailToken)

	// Register against the verified email
	var loginResp LoginResponse
	rec = request(t, srv, "POST", "/api/users/register", map[string]string{
		"email":    "new@glowcart.dev",
		"name":     "New Customer",
		"password": "sunny1day",
	}, &loginResp, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, loginResp.Token)
	require.Equal(t, models.RoleUser, loginResp.User.Role)

	// The OTP challenge is single use
	rec = request(t, srv, "POST", "/api/users/register", map[string]string{
		"email":    "new@glowcart.dev",
		"name":     "New Customer",
		"password": "sunny1day",
	}, nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRequiresVerifiedEmail(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := request(t, srv, "POST", "/api/users/register", map[string]string{
		"email":    "unverified@glowcart.dev",
		"name":     "Nope",
		"password": "sunny1day",
	}, nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "not been verified")
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, password := range []string{"short1", "onlyletters", "12345678"} {
		rec := request(t, srv, "POST", "/api/users/register", map[string]string{
			"email":    "weak@glowcart.dev",
			"name":     "Weak",
			"password": password,
		}, nil, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, "password %q should be rejected", password)
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	srv, fake := newTestServer(t)

	rec := request(t, srv, "POST", "/api/email/send-otp", map[string]string{
		"email": "typo@glowcart.dev",
	}, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	code := lastOTPCode(t, fake)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	rec = request(t, srv, "POST", "/api/email/verify-otp", map[string]string{
		"email": "typo@glowcart.dev",
		"code":  wrong,
	}, nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasswordResetOTPRequiresAccount(t *testing.T) {
	srv, fake := newTestServer(t)

	rec := request(t, srv, "POST", "/api/email/send-otp-forget-password", map[string]string{
		"email": "ghost@glowcart.dev",
	}, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, fake.tasks)

	createUser(t, srv, "real@glowcart.dev", "sunny1day", models.RoleUser)
	rec = request(t, srv, "POST", "/api/email/send-otp-forget-password", map[string]string{
		"email": "real@glowcart.dev",
	}, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fake.tasks, 1)
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	createUser(t, srv, "shopper@glowcart.dev", "sunny1day", models.RoleUser)

	var resp LoginResponse
	rec := request(t, srv, "POST", "/api/auth/login", map[string]string{
		"email":    "shopper@glowcart.dev",
		"password": "sunny1day",
	}, &resp, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "shopper@glowcart.dev", resp.User.Email)

	// Login mirrors the token into the session cookie for the web gates
	cookies := rec.Result().Cookies()
	var found bool
	for _, ck := range cookies {
		if ck.Name == TokenCookie && ck.Value != "" {
			found = true
		}
	}
	require.True(t, found, "login should set the session cookie")

	rec = request(t, srv, "POST", "/api/auth/login", map[string]string{
		"email":    "shopper@glowcart.dev",
		"password": "wrongpass1",
	}, nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(t, srv, "POST", "/api/auth/login", map[string]string{
		"email":    "nobody@glowcart.dev",
		"password": "sunny1day",
	}, nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserAndLogout(t *testing.T) {
	srv, _ := newTestServer(t)
	user, token := createUser(t, srv, "me@glowcart.dev", "sunny1day", models.RoleUser)

	var detail UserDetail
	rec := request(t, srv, "GET", "/api/auth/me", nil, &detail, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, user.ID, detail.ID)
	require.Equal(t, models.RoleUser, detail.Role)

	rec = request(t, srv, "GET", "/api/auth/me", nil, nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(t, srv, "POST", "/api/auth/logout", nil, nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == TokenCookie && ck.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared, "logout should expire the session cookie")
}

func TestItemEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	cream := seedItem(t, srv, "Hydra Cream", 2450, true)
	seedItem(t, srv, "Clear Gel", 1890, true)

	var items []models.Item
	rec := request(t, srv, "GET", "/api/items/all", nil, &items, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, items, 2)

	var item models.Item
	rec = request(t, srv, "GET", "/api/items/"+cream.ID, nil, &item, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Hydra Cream", item.Name)

	rec = request(t, srv, "GET", "/api/items/missing", nil, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var page PaginatedItemsResponse
	rec = request(t, srv, "GET", "/api/items/paginate?page=1&limit=1", nil, &page, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(2), page.Total)
	require.Equal(t, 1, page.Limit)

	// Out-of-range paging parameters are clamped, not rejected
	rec = request(t, srv, "GET", "/api/items/paginate?page=-3&limit=9999", nil, &page, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, page.Page)
}

func TestCartFlow(t *testing.T) {
	srv, fake := newTestServer(t)
	_, userToken := createUser(t, srv, "buyer@glowcart.dev", "sunny1day", models.RoleUser)
	_, staffToken := createUser(t, srv, "staff@glowcart.dev", "sunny1day", models.RoleStaff)
	cream := seedItem(t, srv, "Hydra Cream", 2450, true)

	// Customers create orders
	var order models.Order
	rec := request(t, srv, "POST", "/api/cart/create", CreateOrderRequest{
		Lines: []OrderLineRequest{{ItemID: cream.ID, Quantity: 2}},
	}, &order, bearer(userToken))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, models.OrderStatusPending, order.Status)
	require.Equal(t, int64(4900), order.TotalCents)

	var mine []models.Order
	rec = request(t, srv, "GET", "/api/cart/mine", nil, &mine, bearer(userToken))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, mine, 1)

	// Staff sees nothing of their own but everything overall
	var none []models.Order
	rec = request(t, srv, "GET", "/api/cart/mine", nil, &none, bearer(staffToken))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, none)

	// Customers cannot reach staff-only order management
	rec = request(t, srv, "GET", "/api/cart/all", nil, nil, bearer(userToken))
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = request(t, srv, "PATCH", "/api/cart/"+order.ID, UpdateOrderRequest{Status: models.OrderStatusPaid}, nil, bearer(userToken))
	require.Equal(t, http.StatusForbidden, rec.Code)

	var all []models.Order
	rec = request(t, srv, "GET", "/api/cart/all", nil, &all, bearer(staffToken))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, all, 1)

	// Status update notifies the customer by email
	before := len(fake.tasks)
	var updated models.Order
	rec = request(t, srv, "PATCH", "/api/cart/"+order.ID, UpdateOrderRequest{Status: models.OrderStatusPaid}, &updated, bearer(staffToken))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.OrderStatusPaid, updated.Status)
	require.Len(t, fake.tasks, before+1)
	require.Equal(t, tasks.TypeSendOrderStatusEmail, fake.tasks[len(fake.tasks)-1].Type())

	// Skipping steps in the status lifecycle is rejected
	rec = request(t, srv, "PATCH", "/api/cart/"+order.ID, UpdateOrderRequest{Status: models.OrderStatusDelivered}, nil, bearer(staffToken))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	_, token := createUser(t, srv, "buyer@glowcart.dev", "sunny1day", models.RoleUser)
	gel := seedItem(t, srv, "Clear Gel", 1890, false)

	rec := request(t, srv, "POST", "/api/cart/create", CreateOrderRequest{Lines: []OrderLineRequest{}}, nil, bearer(token))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = request(t, srv, "POST", "/api/cart/create", CreateOrderRequest{
		Lines: []OrderLineRequest{{ItemID: "missing", Quantity: 1}},
	}, nil, bearer(token))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = request(t, srv, "POST", "/api/cart/create", CreateOrderRequest{
		Lines: []OrderLineRequest{{ItemID: gel.ID, Quantity: 1}},
	}, nil, bearer(token))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = request(t, srv, "POST", "/api/cart/create", nil, nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleLookup(t *testing.T) {
	srv, _ := newTestServer(t)
	_, token := createUser(t, srv, "shopper@glowcart.dev", "sunny1day", models.RoleUser)

	staffRole, err := models.RoleByName(srv.db, models.RoleManager)
	require.NoError(t, err)

	var detail RoleDetail
	rec := request(t, srv, "GET", "/api/roles/"+staffRole.ID, nil, &detail, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.RoleManager, detail.Name)
	require.True(t, detail.StaffTier)

	rec = request(t, srv, "GET", "/api/roles/missing", nil, nil, bearer(token))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// webRequest issues a browser-style navigation with an optional token cookie
func webRequest(t *testing.T, srv *Server, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func TestAccountPageGate(t *testing.T) {
	srv, _ := newTestServer(t)
	_, token := createUser(t, srv, "shopper@glowcart.dev", "sunny1day", models.RoleUser)

	// Guests are bounced home with a notice and the login prompt
	rec := webRequest(t, srv, "/account", "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/?login=1", rec.Header().Get("Location"))

	var notices int
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == gate.NoticeCookie {
			notices++
		}
	}
	require.Equal(t, 1, notices, "exactly one notice per denial")

	// Logged-in customers stay put
	rec = webRequest(t, srv, "/account", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "account")

	// Garbage tokens degrade to guest instead of erroring
	rec = webRequest(t, srv, "/orders", "not-a-jwt")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/?login=1", rec.Header().Get("Location"))
}

func TestStaffPageGate(t *testing.T) {
	srv, _ := newTestServer(t)
	_, userToken := createUser(t, srv, "shopper@glowcart.dev", "sunny1day", models.RoleUser)
	_, staffToken := createUser(t, srv, "staff@glowcart.dev", "sunny1day", models.RoleStaff)

	for _, path := range []string{"/staff", "/staff/orders"} {
		// Role denials redirect silently: no notice, no login prompt
		rec := webRequest(t, srv, path, userToken)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, gate.HomePath, rec.Header().Get("Location"))
		require.False(t, strings.Contains(rec.Header().Get("Location"), gate.LoginPromptParam))
		for _, ck := range rec.Result().Cookies() {
			require.NotEqual(t, gate.NoticeCookie, ck.Name)
		}

		rec = webRequest(t, srv, path, staffToken)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestQuizPageGate(t *testing.T) {
	srv, _ := newTestServer(t)
	_, userToken := createUser(t, srv, "shopper@glowcart.dev", "sunny1day", models.RoleUser)
	_, staffToken := createUser(t, srv, "staff@glowcart.dev", "sunny1day", models.RoleStaff)

	// The quiz is for customers; staff accounts are sent to their own area
	rec := webRequest(t, srv, "/quiz", staffToken)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, gate.StaffHomePath, rec.Header().Get("Location"))

	rec = webRequest(t, srv, "/quiz", userToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = webRequest(t, srv, "/quiz", "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, gate.HomePath, rec.Header().Get("Location"))
}
