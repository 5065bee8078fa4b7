// Package profile is the client of the hosted profile store and the
// onboarding check built on top of it.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const pathUsers = "/rest/v1/users"

// ErrNotFound is returned when the profile row does not exist.
var ErrNotFound = errors.New("profile not found")

// User mirrors the users table of the backend.
type User struct {
	ID             string   `json:"id"`
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	AvatarURL      *string  `json:"avatar_url"`
	FavoriteSnacks []string `json:"favorite_snacks"`
	ReviewerType   string   `json:"reviewer_type"`
	CreatedAt      string   `json:"created_at"`
}

// Config of the profile store client.
type Config struct {
	BaseURL string `yaml:"base_url" validate:"required,http_url"`
	APIKey  string `yaml:"api_key" validate:"required"`
}

// Client reads and updates profile rows. TokenSource supplies the access
// token of the current session; row access is enforced server-side per
// token.
type Client struct {
	config      Config
	httpClient  *http.Client
	tokenSource func() string
}

func NewClient(config Config, tokenSource func() string) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid profile config: %w", err)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		tokenSource: tokenSource,
	}, nil
}

// GetFavoriteSnacks fetches the favorite_snacks sequence for the user.
func (c *Client) GetFavoriteSnacks(ctx context.Context, userID string) ([]string, error) {
	query := url.Values{}
	query.Set("id", "eq."+userID)
	query.Set("select", "favorite_snacks")

	var rows []struct {
		FavoriteSnacks []string `json:"favorite_snacks"`
	}
	if err := c.get(ctx, pathUsers+"?"+query.Encode(), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].FavoriteSnacks, nil
}

// GetUser fetches the full profile row for the user.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	query := url.Values{}
	query.Set("id", "eq."+userID)
	query.Set("select", "*")

	var rows []User
	if err := c.get(ctx, pathUsers+"?"+query.Encode(), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// SetFavoriteSnacks replaces the favorite_snacks sequence for the user.
// This is the write the onboarding surface performs.
func (c *Client) SetFavoriteSnacks(ctx context.Context, userID string, snacks []string) error {
	query := url.Values{}
	query.Set("id", "eq."+userID)

	payload, err := json.Marshal(map[string][]string{"favorite_snacks": snacks})
	if err != nil {
		return fmt.Errorf("marshalling snacks: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		c.config.BaseURL+pathUsers+"?"+query.Encode(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("updating favorite snacks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("profile store returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return err
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("profile store returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding profile response: %w", err)
	}
	return nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("apikey", c.config.APIKey)
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}
