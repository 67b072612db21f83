package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/mma_local/internal/handlers"
	"github.com/SscSPs/mma_local/internal/platform/config"
	"github.com/SscSPs/mma_local/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret  = "test-secret-key-that-is-long-enough"
	testPairingKey = "pairing-key-for-tests"
)

func testConfig() *config.Config {
	return &config.Config{
		IsProduction:      true,
		JWTSecret:         testJWTSecret,
		JWTExpiryDuration: time.Hour,
		JWTIssuer:         "mma-test",
		PairingKey:        testPairingKey,
		RateLimit:         "1000-M",
	}
}

func newTestRouter(t *testing.T, deps handlers.Dependencies) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, handlers.RegisterRoutes(r, testConfig(), deps))
	return r
}

func testToken(t *testing.T, clientID string) string {
	t.Helper()
	token, err := utils.GenerateJWT(clientID, testJWTSecret, time.Hour, "mma-test")
	require.NoError(t, err)
	return token
}

// do sends an authenticated request with an optional JSON body.
func do(t *testing.T, r http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+testToken(t, "client-1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
