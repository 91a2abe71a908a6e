// Package client is the typed HTTP client for the Glowcart API. All
// endpoints report failures through the single APIError type so commands
// handle backend errors one way.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// APIError is the uniform error for any non-success backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Client represents an HTTP client for the Glowcart API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// do sends a JSON request and decodes the response into out (skipped when
// out is nil). Any status other than wantStatus becomes an *APIError with
// the backend's error message.
func (c *Client) do(method, path, token string, body, out interface{}, wantStatus int) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if data, err := io.ReadAll(resp.Body); err == nil {
			if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
				apiErr.Message = payload.Error
			} else {
				apiErr.Message = string(bytes.TrimSpace(data))
			}
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// User represents account information returned by the API
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// LoginResponse represents the login and register response
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login authenticates the user and returns a JWT token
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp LoginResponse
	if err := c.do("POST", "/api/auth/login", "", body, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account for an OTP-verified email. The response
// doubles as a login.
func (c *Client) Register(email, name, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "name": name, "password": password}
	var resp LoginResponse
	if err := c.do("POST", "/api/users/register", "", body, &resp, http.StatusCreated); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout invalidates the session server-side
func (c *Client) Logout(token string) error {
	return c.do("POST", "/api/auth/logout", token, nil, nil, http.StatusOK)
}

// Me returns the currently authenticated account
func (c *Client) Me(token string) (*User, error) {
	var user User
	if err := c.do("GET", "/api/auth/me", token, nil, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// SendOTP requests a registration verification code for the email
func (c *Client) SendOTP(email string) error {
	return c.do("POST", "/api/email/send-otp", "", map[string]string{"email": email}, nil, http.StatusOK)
}

// SendPasswordResetOTP requests a password-reset code for an existing account
func (c *Client) SendPasswordResetOTP(email string) error {
	return c.do("POST", "/api/email/send-otp-forget-password", "", map[string]string{"email": email}, nil, http.StatusOK)
}

// VerifyOTPResponse represents a successful code verification
type VerifyOTPResponse struct {
	Email      string `json:"email"`
	Verified   bool   `json:"verified"`
	Purpose    string `json:"purpose"`
	EmailToken string `json:"email_token"`
}

// VerifyOTP checks the code the user received by email
func (c *Client) VerifyOTP(email, code, purpose string) (*VerifyOTPResponse, error) {
	body := map[string]string{"email": email, "code": code, "purpose": purpose}
	var resp VerifyOTPResponse
	if err := c.do("POST", "/api/email/verify-otp", "", body, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Item represents a catalog product
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
	SkinType    string `json:"skin_type"`
	InStock     bool   `json:"in_stock"`
}

// ListItems returns the full catalog
func (c *Client) ListItems() ([]Item, error) {
	var items []Item
	if err := c.do("GET", "/api/items/all", "", nil, &items, http.StatusOK); err != nil {
		return nil, err
	}
	return items, nil
}

// ItemPage represents one page of the catalog
type ItemPage struct {
	Items []Item `json:"items"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Total int64  `json:"total"`
}

// PaginateItems returns one catalog page
func (c *Client) PaginateItems(page, limit int) (*ItemPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var resp ItemPage
	if err := c.do("GET", "/api/items/paginate?"+query.Encode(), "", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetItem returns a single catalog product
func (c *Client) GetItem(id string) (*Item, error) {
	var item Item
	if err := c.do("GET", "/api/items/"+id, "", nil, &item, http.StatusOK); err != nil {
		return nil, err
	}
	return &item, nil
}

// OrderLine is one item/quantity pair in a new order
type OrderLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// OrderItem is one line of a placed order
type OrderItem struct {
	ItemID         string `json:"item_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Item           Item   `json:"item"`
}

// Order represents a placed cart
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Status     string      `json:"status"`
	TotalCents int64       `json:"total_cents"`
	Currency   string      `json:"currency"`
	CreatedAt  string      `json:"created_at"`
	Items      []OrderItem `json:"items"`
}

// CreateOrder places an order for the authenticated user
func (c *Client) CreateOrder(token string, lines []OrderLine) (*Order, error) {
	body := map[string]interface{}{"lines": lines}
	var order Order
	if err := c.do("POST", "/api/cart/create", token, body, &order, http.StatusCreated); err != nil {
		return nil, err
	}
	return &order, nil
}

// MyOrders returns the authenticated user's orders
func (c *Client) MyOrders(token string) ([]Order, error) {
	var orders []Order
	if err := c.do("GET", "/api/cart/mine", token, nil, &orders, http.StatusOK); err != nil {
		return nil, err
	}
	return orders, nil
}

// AllOrders returns every order (staff only)
func (c *Client) AllOrders(token string) ([]Order, error) {
	var orders []Order
	if err := c.do("GET", "/api/cart/all", token, nil, &orders, http.StatusOK); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus moves an order along its status lifecycle (staff only)
func (c *Client) UpdateOrderStatus(token, orderID, status string) (*Order, error) {
	body := map[string]string{"status": status}
	var order Order
	if err := c.do("PATCH", "/api/cart/"+orderID, token, body, &order, http.StatusOK); err != nil {
		return nil, err
	}
	return &order, nil
}

// Role represents an account role
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StaffTier   bool   `json:"staff_tier"`
}

// GetRole resolves a role by ID
func (c *Client) GetRole(token, id string) (*Role, error) {
	var role Role
	if err := c.do("GET", "/api/roles/"+id, token, nil, &role, http.StatusOK); err != nil {
		return nil, err
	}
	return &role, nil
}
