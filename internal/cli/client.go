package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apiPrefix = "/api/v1"

// Client is a typed client for the locker service API. Commands call the
// domain methods rather than building paths and bodies themselves.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) String() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

type registerRequest struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyCodeRequest struct {
	Code string `json:"code"`
}

type joinWaitlistRequest struct {
	Email string `json:"email"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// Health checks server liveness
func (c *Client) Health() (*HealthResult, error) {
	var result HealthResult
	if err := c.get("/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates an account and returns the logged-in session
func (c *Client) Register(studentID, name, email, password string) (*AuthResult, error) {
	req := registerRequest{StudentID: studentID, Name: name, Email: email, Password: password}
	var result AuthResult
	if err := c.post("/accounts/register", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login authenticates with email and password
func (c *Client) Login(email, password string) (*AuthResult, error) {
	req := loginRequest{Email: email, Password: password}
	var result AuthResult
	if err := c.post("/accounts/login", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout ends the current session
func (c *Client) Logout() error {
	return c.post("/accounts/logout", nil, nil)
}

// Me returns the account behind the current session
func (c *Client) Me() (*User, error) {
	var result User
	if err := c.get("/accounts/me", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListLockers returns all lockers ordered by id
func (c *Client) ListLockers() (*LockerList, error) {
	var result LockerList
	if err := c.get("/lockers", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetLocker returns a single locker
func (c *Client) GetLocker(id int) (*Locker, error) {
	var result Locker
	if err := c.get(fmt.Sprintf("/lockers/%d", id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RentLocker rents an available locker to the current account
func (c *Client) RentLocker(id int) (*Locker, error) {
	var result Locker
	if err := c.post(fmt.Sprintf("/lockers/%d/rent", id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReturnLocker returns a locker rented by the current account
func (c *Client) ReturnLocker(id int) (*ReturnResult, error) {
	var result ReturnResult
	if err := c.post(fmt.Sprintf("/lockers/%d/return", id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateAccessCode issues a time-boxed access code for a rented locker
func (c *Client) GenerateAccessCode(id int) (*AccessCode, error) {
	var result AccessCode
	if err := c.post(fmt.Sprintf("/lockers/%d/access-code", id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyAccessCode checks an access code against a locker
func (c *Client) VerifyAccessCode(id int, code string) error {
	return c.post(fmt.Sprintf("/lockers/%d/access-code/verify", id), verifyCodeRequest{Code: code}, nil)
}

// JoinWaitlist enqueues an email on the waitlist. An empty email defaults
// to the current account server-side.
func (c *Client) JoinWaitlist(email string) error {
	return c.post("/waitlist", joinWaitlistRequest{Email: email}, nil)
}

// Waitlist returns the waitlist in queue order
func (c *Client) Waitlist() (*WaitlistResult, error) {
	var result WaitlistResult
	if err := c.get("/waitlist", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ForceReturnLocker returns a locker regardless of owner (admin)
func (c *Client) ForceReturnLocker(id int) (*ReturnResult, error) {
	var result ReturnResult
	if err := c.post(fmt.Sprintf("/admin/lockers/%d/force-return", id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetLockerStatus sets a locker's status (admin)
func (c *Client) SetLockerStatus(id int, status string) (*Locker, error) {
	var result Locker
	if err := c.patch(fmt.Sprintf("/admin/lockers/%d/status", id), updateStatusRequest{Status: status}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListUsers returns all registered users (admin)
func (c *Client) ListUsers() (*UserList, error) {
	var result UserList
	if err := c.get("/admin/users", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RemoveUser deletes a user account (admin)
func (c *Client) RemoveUser(studentID string) error {
	return c.delete("/admin/users/" + studentID)
}

// AuditLog returns the audit log, newest first (admin)
func (c *Client) AuditLog() (*AuditLog, error) {
	var result AuditLog
	if err := c.get("/admin/audit-log", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do performs an HTTP request against the API
func (c *Client) do(method, path string, body, result any) error {
	url := c.baseURL + apiPrefix + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return fmt.Errorf("%s", errResp.Error.String())
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	// Parse successful response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

func (c *Client) get(path string, result any) error {
	return c.do(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body, result any) error {
	return c.do(http.MethodPost, path, body, result)
}

func (c *Client) patch(path string, body, result any) error {
	return c.do(http.MethodPatch, path, body, result)
}

func (c *Client) delete(path string) error {
	return c.do(http.MethodDelete, path, nil, nil)
}
