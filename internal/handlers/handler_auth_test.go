package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/handlers"
	"github.com/SscSPs/mma_local/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenRequest(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	return req
}

func TestIssueToken(t *testing.T) {
	r := newTestRouter(t, handlers.Dependencies{Services: &portssvc.ServiceContainer{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, tokenRequest(testPairingKey, `{"clientId":"phone-ui"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

	claims, err := utils.ParseAndValidateJWT(resp.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "phone-ui", claims.Subject)
	assert.Equal(t, "mma-test", claims.Issuer)
}

func TestIssueToken_Rejections(t *testing.T) {
	tests := []struct {
		name string
		key  string
		body string
		want int
	}{
		{"missing key", "", `{"clientId":"x"}`, http.StatusUnauthorized},
		{"wrong key", "nope", `{"clientId":"x"}`, http.StatusUnauthorized},
		{"missing client", testPairingKey, `{}`, http.StatusBadRequest},
	}

	r := newTestRouter(t, handlers.Dependencies{Services: &portssvc.ServiceContainer{}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tokenRequest(tt.key, tt.body))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestIssueToken_RateLimited(t *testing.T) {
	r := newTestRouter(t, handlers.Dependencies{Services: &portssvc.ServiceContainer{}})

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, tokenRequest("nope", `{"clientId":"x"}`))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusUnauthorized, codes[4])
	assert.Equal(t, http.StatusTooManyRequests, codes[5])
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, handlers.Dependencies{Services: &portssvc.ServiceContainer{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}
