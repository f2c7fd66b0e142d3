// Package aa integrates with the Account Aggregator API: the stateful
// consent/session handshake that authorizes and executes a one-time pull of
// a user's bank transaction data.
package aa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ArchanSureja/QuickCredit/internal/config"
	"github.com/sirupsen/logrus"
)

// Client handles integration with the Account Aggregator API.
type Client struct {
	tokenURL     string
	baseURL      string
	clientID     string
	clientSecret string
	productID    string
	fipID        string
	client       *http.Client
	log          *logrus.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient initializes a new AA client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		tokenURL:     cfg.AATokenURL,
		baseURL:      cfg.AABaseURL,
		clientID:     cfg.AAClientID,
		clientSecret: cfg.AAClientSecret,
		productID:    cfg.AAProductID,
		fipID:        cfg.AAFIPID,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Consent is the AA's handle for a created consent request: the identifier
// to poll and the approval URL to hand to the user.
type Consent struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Session is the AA's handle for a created data session.
type Session struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SessionData is a fetched data session: its status and the raw consent-data
// payload, left opaque for the normalizer to parse.
type SessionData struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Raw    []byte `json:"-"`
}

const dataRangeTimestamp = "2006-01-02T15:04:05Z"

// CreateConsent requests a 24-month consent over the last year of data for
// the given phone handle.
func (c *Client) CreateConsent(ctx context.Context, phone string) (*Consent, error) {
	now := time.Now().UTC()
	payload := map[string]any{
		"consentDuration": map[string]string{
			"unit":  "MONTH",
			"value": "24",
		},
		"vua": phone,
		"dataRange": map[string]string{
			"from": now.AddDate(0, 0, -365).Format(dataRangeTimestamp),
			"to":   now.Format(dataRangeTimestamp),
		},
		"context": []map[string]string{
			{"key": "fipId", "value": c.fipID},
		},
	}

	body, err := c.doJSON(ctx, http.MethodPost, "/consents", payload)
	if err != nil {
		return nil, err
	}

	var consent Consent
	if err := json.Unmarshal(body, &consent); err != nil {
		return nil, fmt.Errorf("failed to parse consent response: %w", err)
	}
	if consent.ID == "" {
		return nil, fmt.Errorf("consent response has no id")
	}

	c.log.Infof("Consent created: %s", consent.ID)
	return &consent, nil
}

// ConsentStatus fetches the current state of a consent. The AA's response is
// passed through untouched.
func (c *Client) ConsentStatus(ctx context.Context, consentID string) (json.RawMessage, error) {
	return c.doJSON(ctx, http.MethodGet, "/consents/"+consentID, nil)
}

// CreateSession opens a data session against an approved consent, requesting
// the JSON-formatted feed.
func (c *Client) CreateSession(ctx context.Context, consentID string) (*Session, error) {
	now := time.Now().UTC().AddDate(0, 0, -1)
	payload := map[string]any{
		"consentId": consentID,
		"dataRange": map[string]string{
			"from": now.AddDate(0, 0, -300).Format(dataRangeTimestamp),
			"to":   now.Format(dataRangeTimestamp),
		},
		"format": "json",
	}

	body, err := c.doJSON(ctx, http.MethodPost, "/sessions", payload)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("session response has no id")
	}

	c.log.Infof("Data session created: %s (%s)", session.ID, session.Status)
	return &session, nil
}

// FetchSession retrieves a data session and its payload, if ready.
func (c *Client) FetchSession(ctx context.Context, sessionID string) (*SessionData, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/sessions/"+sessionID, nil)
	if err != nil {
		return nil, err
	}

	var data SessionData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}
	data.Raw = body
	return &data, nil
}

// doJSON sends an authenticated request to the AA API and returns the raw
// response body.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-product-instance-id", c.productID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("AA %s %s -> %d", method, path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code %d from %s %s", resp.StatusCode, method, path)
	}
	return body, nil
}
