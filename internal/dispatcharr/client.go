// Package dispatcharr is a minimal client for the Dispatcharr control-plane
// API: JWT login, stream-profile listing, and reading/switching the global
// active profile. Any failure here is fatal to a test run — the backend's
// active profile is shared mutable state and must never be left in doubt.
package dispatcharr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// activeProfileKey is the settings row that holds the globally active
// stream profile.
const activeProfileKey = "default-stream-profile"

// Profile is one stream delivery profile. ID is opaque and passed back
// verbatim when activating.
type Profile struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

// FlexID is a profile identifier that the backend serves either as a JSON
// string (UUID) or a bare number, depending on version.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("profile id: expected string or number, got %s", data)
	}
	*f = FlexID(n.String())
	return nil
}

// Client talks to one Dispatcharr instance. Create with New, then Login
// before any other call.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for the backend at baseURL (e.g.
// "http://192.168.0.150:9191"). All calls use a 10s timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Login authenticates with username/password and stores the JWT access
// token for subsequent calls.
func (c *Client) Login(username, password string) error {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/accounts/token/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Access string `json:"access"`
	}
	if err := c.do(req, &out); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if out.Access == "" {
		return fmt.Errorf("login: no access token in response")
	}
	c.token = out.Access
	return nil
}

// Profiles returns all stream profiles known to the backend.
func (c *Client) Profiles() ([]Profile, error) {
	req, err := c.authedRequest(http.MethodGet, "/api/core/streamprofiles/", nil)
	if err != nil {
		return nil, err
	}
	var profiles []Profile
	if err := c.do(req, &profiles); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// settingsRow is one entry of the backend's settings list.
type settingsRow struct {
	ID    int    `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ActiveProfile returns the currently active profile ID and the settings
// row ID needed to change it.
func (c *Client) ActiveProfile() (profileID string, settingsID int, err error) {
	req, err := c.authedRequest(http.MethodGet, "/api/core/settings/", nil)
	if err != nil {
		return "", 0, err
	}
	var rows []settingsRow
	if err := c.do(req, &rows); err != nil {
		return "", 0, fmt.Errorf("read settings: %w", err)
	}
	for _, row := range rows {
		if row.Key == activeProfileKey {
			return row.Value, row.ID, nil
		}
	}
	return "", 0, fmt.Errorf("read settings: %q key not found", activeProfileKey)
}

// SetActiveProfile switches the backend's global active profile. The
// profile ID is sent back verbatim as the settings value.
func (c *Client) SetActiveProfile(settingsID int, profileID string) error {
	body, _ := json.Marshal(map[string]string{"value": profileID})
	path := fmt.Sprintf("/api/core/settings/%d/", settingsID)
	req, err := c.authedRequest(http.MethodPatch, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("set active profile %s: %w", profileID, err)
	}
	return nil
}

func (c *Client) authedRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do executes req and decodes a JSON response into out (skipped when out
// is nil). Non-2xx responses become errors carrying the status.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: status %s", req.Method, req.URL.Path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
