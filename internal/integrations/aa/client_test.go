package aa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ArchanSureja/QuickCredit/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// bearerToken builds a signed JWT expiring at exp; the client only reads the
// exp claim and never verifies the signature.
func bearerToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func newTestClient(tokenURL, baseURL string) *Client {
	return NewClient(&config.Config{
		AATokenURL:     tokenURL,
		AABaseURL:      baseURL,
		AAClientID:     "client-1",
		AAClientSecret: "secret-1",
		AAProductID:    "product-1",
		AAFIPID:        "setu-fip-2",
	}, testLogger())
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got := tokenExpiry(bearerToken(t, exp))
	if !got.Equal(exp) {
		t.Errorf("tokenExpiry = %s, want %s", got, exp)
	}

	// Opaque tokens fall back to a fixed TTL.
	before := time.Now()
	got = tokenExpiry("not-a-jwt")
	if got.Before(before.Add(fallbackTTL-time.Minute)) || got.After(before.Add(fallbackTTL+time.Minute)) {
		t.Errorf("opaque tokenExpiry = %s, want about %s from now", got, fallbackTTL)
	}
}

func TestClient_TokenCachedAcrossCalls(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		if got := r.Header.Get("client"); got != "bridge" {
			t.Errorf("token request client header = %q, want %q", got, "bridge")
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": bearerToken(t, time.Now().Add(time.Hour)),
		})
	})
	mux.HandleFunc("/consents/consent-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ACTIVE"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL+"/token", server.URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := client.ConsentStatus(ctx, "consent-1"); err != nil {
			t.Fatalf("ConsentStatus failed: %v", err)
		}
	}
	if tokenCalls != 1 {
		t.Errorf("token fetched %d times across 3 calls, want 1", tokenCalls)
	}
}

func TestClient_ExpiredTokenIsRefreshed(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		// Already expired: the next call must fetch a fresh one.
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": bearerToken(t, time.Now().Add(-time.Minute)),
		})
	})
	mux.HandleFunc("/consents/consent-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ACTIVE"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL+"/token", server.URL)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := client.ConsentStatus(ctx, "consent-1"); err != nil {
			t.Fatalf("ConsentStatus failed: %v", err)
		}
	}
	if tokenCalls != 2 {
		t.Errorf("token fetched %d times with expired tokens, want 2", tokenCalls)
	}
}

func TestClient_CreateConsent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": bearerToken(t, time.Now().Add(time.Hour)),
		})
	})
	mux.HandleFunc("/consents", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-product-instance-id"); got != "product-1" {
			t.Errorf("x-product-instance-id = %q, want %q", got, "product-1")
		}
		if got := r.Header.Get("Authorization"); got == "" {
			t.Errorf("missing Authorization header")
		}
		var payload struct {
			VUA     string `json:"vua"`
			Context []struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			} `json:"context"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode consent payload: %v", err)
		}
		if payload.VUA != "9999999999" {
			t.Errorf("vua = %q, want %q", payload.VUA, "9999999999")
		}
		if len(payload.Context) != 1 || payload.Context[0].Value != "setu-fip-2" {
			t.Errorf("context = %+v, want single fipId entry", payload.Context)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"id":  "consent-1",
			"url": "https://aa.example/approve/consent-1",
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL+"/token", server.URL)
	consent, err := client.CreateConsent(context.Background(), "9999999999")
	if err != nil {
		t.Fatalf("CreateConsent failed: %v", err)
	}
	if consent.ID != "consent-1" || consent.URL == "" {
		t.Errorf("consent = %+v, want id and url", consent)
	}
}

func TestClient_FetchSessionKeepsRawPayload(t *testing.T) {
	body := `{"id": "session-1", "status": "COMPLETED", "payload": {"fips": []}}`
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": bearerToken(t, time.Now().Add(time.Hour)),
		})
	})
	mux.HandleFunc("/sessions/session-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL+"/token", server.URL)
	data, err := client.FetchSession(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("FetchSession failed: %v", err)
	}
	if data.Status != "COMPLETED" {
		t.Errorf("status = %q, want COMPLETED", data.Status)
	}
	if string(data.Raw) != body {
		t.Errorf("raw payload = %q, want untouched body", string(data.Raw))
	}
}

func TestClient_ErrorStatusSurfaced(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": bearerToken(t, time.Now().Add(time.Hour)),
		})
	})
	mux.HandleFunc("/consents/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such consent", http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL+"/token", server.URL)
	if _, err := client.ConsentStatus(context.Background(), "missing"); err == nil {
		t.Fatalf("ConsentStatus succeeded on 404, want error")
	}
}
