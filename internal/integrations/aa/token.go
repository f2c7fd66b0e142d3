package aa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token refresh policy: a cached token is reused until refreshMargin before
// its expiry; tokens whose expiry cannot be read fall back to a fixed TTL.
const (
	refreshMargin = 30 * time.Second
	fallbackTTL   = 15 * time.Minute
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// accessToken returns a valid bearer token for the AA API, refreshing it
// when the cached one is missing or about to expire. The cache lives in
// process memory only; nothing is written to disk.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExp.Add(-refreshMargin)) {
		return c.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"clientID":   c.clientID,
		"grant_type": "client_credentials",
		"secret":     c.clientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("client", "bridge")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response has no access_token")
	}

	c.token = tr.AccessToken
	c.tokenExp = tokenExpiry(tr.AccessToken)
	c.log.Debugf("AA token refreshed, valid until %s", c.tokenExp.Format(time.RFC3339))
	return c.token, nil
}

// tokenExpiry reads the exp claim of the bearer token without verifying its
// signature; verification is the AA's job, we only need the lifetime. Opaque
// tokens get the fallback TTL.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return time.Now().Add(fallbackTTL)
}
