// Package api is the request/response client for the workspace backend:
// credential issuance, the user directory, and project CRUD/membership.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors callers branch on. Everything else is a transport error or
// an *APIError carrying the server's status and message.
var (
	ErrUnauthorized  = errors.New("unauthorized: credential missing or rejected")
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("a project with that name already exists")
)

// APIError is a non-2xx response that is none of the sentinel cases.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

const requestTimeout = 15 * time.Second

// Client talks to the backend REST API. TokenFunc supplies the bearer token
// per request so a login during the process lifetime is picked up without
// rebuilding the client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	TokenFunc  func() string
}

func NewClient(baseURL string, tokenFunc func() string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: requestTimeout},
		TokenFunc:  tokenFunc,
	}
}

// AuthResult is the response to login and register.
type AuthResult struct {
	Token string  `json:"token"`
	User  UserRef `json:"user"`
}

// Login exchanges credentials for a token and the resolved user.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects returns every project the user can see.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out struct {
		Projects []Project `json:"projects"`
	}
	if err := c.do(ctx, http.MethodGet, "/projects/all", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// CreateProject creates a project. A duplicate name is reported as
// ErrDuplicateName, distinct from transport failures.
func (c *Client) CreateProject(ctx context.Context, name string) (*Project, error) {
	var out Project
	err := c.do(ctx, http.MethodPost, "/projects/create", map[string]string{"name": name}, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &out, nil
}

// GetProject fetches one project with its roster.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var out struct {
		Project Project `json:"project"`
	}
	if err := c.do(ctx, http.MethodGet, "/projects/get-project/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out.Project, nil
}

// AddUsers adds the given user ids to the project roster and returns the
// updated project.
func (c *Client) AddUsers(ctx context.Context, projectID string, userIDs []string) (*Project, error) {
	var out struct {
		Project Project `json:"project"`
	}
	body := map[string]any{
		"projectId": projectID,
		"users":     userIDs,
	}
	if err := c.do(ctx, http.MethodPut, "/projects/add-user", body, &out); err != nil {
		return nil, err
	}
	return &out.Project, nil
}

// ListUsers returns the full user directory.
func (c *Client) ListUsers(ctx context.Context) ([]UserRef, error) {
	var out struct {
		Users []UserRef `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/all", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.TokenFunc != nil {
		if token := c.TokenFunc(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		return &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// readErrorMessage extracts a server error message from common shapes
// ({"error": "..."} or {"message": "..."}) falling back to the raw body.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var shaped struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &shaped) == nil {
		if shaped.Error != "" {
			return shaped.Error
		}
		if shaped.Message != "" {
			return shaped.Message
		}
	}
	return strings.TrimSpace(string(data))
}
