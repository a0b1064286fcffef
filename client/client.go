// Package client is the desktop side's explicitly constructed handle to the
// privileged backend. One Client is built at application startup and
// injected wherever the subscription operations are needed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/drewsephski/Dream/app/models"
)

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// New builds a Client for the backend at baseURL. token is the bearer token
// sent on authenticated routes; empty means none.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateSubscription invokes the backend subscription-creation operation.
// Transport failures come back as errors; application failures ride the
// result's Error field.
func (c *Client) CreateSubscription(ctx context.Context, params models.CreateSubscriptionParams) (models.CreateSubscriptionResult, error) {
	var result models.CreateSubscriptionResult
	err := c.postJSON(ctx, "/api/subscription/create", params, &result)
	return result, err
}

// GetSubscriptionStatus reports {isSubscribed, tier} for a user id. Absent
// a user id it does not execute and reports the unloaded zero value.
func (c *Client) GetSubscriptionStatus(ctx context.Context, userID string) (models.SubscriptionStatusResult, error) {
	var result models.SubscriptionStatusResult
	if userID == "" {
		return result, nil
	}
	err := c.getJSON(ctx, "/api/subscription/status", url.Values{"user_id": {userID}}, &result)
	return result, err
}

// GetUserBudget returns the budget projection, or nil when the backend
// reports it unavailable.
func (c *Client) GetUserBudget(ctx context.Context, userID string) (*models.UserBudget, error) {
	var budget *models.UserBudget
	if err := c.getJSON(ctx, "/me/budget", url.Values{"user_id": {userID}}, &budget); err != nil {
		return nil, err
	}
	return budget, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("backend status %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
