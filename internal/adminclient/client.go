package adminclient

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

	"parish-site/internal/session"
)

const maxResponseBytes = 2 << 20

// APIError is a non-2xx response carrying the server's {"message"} body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Message)
}

func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Manager
}

func New(baseURL string, manager *session.Manager, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if manager == nil {
		manager = session.NewManager(nil, nil)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    manager,
	}
}

func (c *Client) Session() *session.Manager {
	return c.session
}

type loginResponse struct {
	Success bool            `json:"success"`
	Token   string          `json:"token"`
	Admin   session.Profile `json:"admin"`
}

// Login exchanges credentials for a token and keeps it in the session.
func (c *Client) Login(ctx context.Context, email, password string) (session.Profile, error) {
	var out loginResponse
	err := c.send(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return session.Profile{}, err
	}
	if !out.Success || out.Token == "" {
		return session.Profile{}, fmt.Errorf("login response missing token")
	}

	if err := c.session.Store(out.Token, out.Admin); err != nil {
		return session.Profile{}, err
	}
	return out.Admin, nil
}

// Logout tells the server and drops the local session whatever it answers.
func (c *Client) Logout(ctx context.Context) error {
	defer c.session.ClearAll()
	return c.send(ctx, http.MethodPost, "/api/auth/logout", "", nil, nil)
}

// Do sends an authenticated request. Without a structurally valid session
// token it returns session.ErrNoSession or session.ErrSessionExpired and
// never touches the network. A 401 from the server clears the session.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.session.Current()
	if err != nil {
		return err
	}

	err = c.send(ctx, method, path, token, body, out)
	if IsStatus(err, http.StatusUnauthorized) {
		c.session.ClearAll()
		return fmt.Errorf("%w: %w", session.ErrSessionExpired, err)
	}
	return err
}

func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) PutJSON(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) send(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
