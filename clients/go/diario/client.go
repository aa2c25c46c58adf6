// Package diario provides a client for the newsroom realtime server: login,
// presence heartbeats and the websocket messaging surface.
package diario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is an HTTP client for the presence and auth endpoints.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// doRequest performs an HTTP request, attaching the session token when set.
func (c *Client) doRequest(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// User is a staff account as returned by the server.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// LoginResponse is the response from a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login authenticates and stores the session token on the client.
func (c *Client) Login(username, password string) (*LoginResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	respBody, err := c.doRequest("POST", "/auth/login", body)
	if err != nil {
		return nil, err
	}

	var resp LoginResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	c.Token = resp.Token
	return &resp, nil
}

// HeartbeatResponse is the response from a presence heartbeat.
type HeartbeatResponse struct {
	Status      string `json:"status"`
	OnlineCount int    `json:"onlineCount"`
}

// Heartbeat refreshes this session's presence entry.
func (c *Client) Heartbeat() (*HeartbeatResponse, error) {
	respBody, err := c.doRequest("POST", "/presence/heartbeat", nil)
	if err != nil {
		return nil, err
	}

	var resp HeartbeatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OnlineUser is one entry in the admin online listing.
type OnlineUser struct {
	Identity   string    `json:"identity"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	ClientIP   string    `json:"client_ip"`
	OnlineFor  int       `json:"online_for_minutes"`
	LastActive time.Time `json:"last_active"`
}

// OnlineResponse is the response from the online listing (admin only).
type OnlineResponse struct {
	OnlineUsers []OnlineUser `json:"onlineUsers"`
	Total       int          `json:"total"`
	AsOf        time.Time    `json:"asOf"`
}

// Online lists everyone currently online. Requires an admin session.
func (c *Client) Online() (*OnlineResponse, error) {
	respBody, err := c.doRequest("GET", "/presence/online", nil)
	if err != nil {
		return nil, err
	}

	var resp OnlineResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogoutResponse is the response from a logout.
type LogoutResponse struct {
	Remaining int `json:"remaining"`
}

// Logout revokes the session and clears the stored token.
func (c *Client) Logout() (*LogoutResponse, error) {
	respBody, err := c.doRequest("POST", "/presence/logout", nil)
	if err != nil {
		return nil, err
	}

	var resp LogoutResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	c.Token = ""
	return &resp, nil
}

// GetUser fetches a staff profile by id.
func (c *Client) GetUser(id string) (*User, error) {
	respBody, err := c.doRequest("GET", "/users/"+id, nil)
	if err != nil {
		return nil, err
	}

	var resp User
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health checks server health.
func (c *Client) Health() (*HealthResponse, error) {
	respBody, err := c.doRequest("GET", "/health", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
