package httpremote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_local/internal/core/ports/repositories"
	"github.com/SscSPs/mma_local/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch() portsrepo.SyncBatch {
	return portsrepo.SyncBatch{
		DeviceID: "device-1",
		SentAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		FromSeq:  1,
		ToSeq:    2,
		Changes: []domain.EntityChange{
			{Table: domain.TableAccounts, ID: "a1", Op: domain.ChangePut, Data: json.RawMessage(`{"id":"a1"}`)},
			{Table: domain.TableLoans, ID: "l1", Op: domain.ChangeDelete},
		},
	}
}

func TestPushSendsSignedBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		claims, err := utils.ParseAndValidateJWT(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "), "device-secret")
		if assert.NoError(t, err) {
			assert.Equal(t, "device-1", claims.Subject)
		}

		var got portsrepo.SyncBatch
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&got)) {
			assert.Len(t, got.Changes, 2)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(portsrepo.SyncResult{
			Accepted:  1,
			Conflicts: []domain.EntityChange{{Table: domain.TableAccounts, ID: "a1", Op: domain.ChangePut, Data: json.RawMessage(`{"id":"a1","name":"server"}`)}},
		})
	}))
	defer server.Close()

	c, err := NewClient(server.URL, WithDeviceToken(DeviceToken{DeviceID: "device-1", Secret: "device-secret", Issuer: "mma-local"}))
	require.NoError(t, err)

	res, err := c.Push(context.Background(), sampleBatch())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)
	require.Len(t, res.Conflicts, 1)
	assert.JSONEq(t, `{"id":"a1","name":"server"}`, string(res.Conflicts[0].Data))
}

func TestPushNon2xxIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = c.Push(context.Background(), sampleBatch())
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Code)
	assert.Contains(t, err.Error(), "maintenance")
}

func TestPushWithClientCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"cc-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer cc-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(portsrepo.SyncResult{Accepted: 2})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	hc := ClientCredentialsHTTPClient(context.Background(), "client", "secret", server.URL+"/token", nil)
	c, err := NewClient(server.URL+"/sync", WithHTTPClient(hc))
	require.NoError(t, err)

	res, err := c.Push(context.Background(), sampleBatch())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Accepted)
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
