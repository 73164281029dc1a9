package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewTestClient(server.Client(), nil)
	raw, err := client.Do(context.Background(), RequestDetail{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.True(t, raw.IsJSON())
}

func TestClientDoGivesUpAfterTwoAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewTestClient(server.Client(), nil)
	_, err := client.Do(context.Background(), RequestDetail{URL: server.URL})
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestClientDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewTestClient(server.Client(), nil)
	_, err := client.Do(context.Background(), RequestDetail{URL: server.URL})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientDoSendsHeadersAndToken(t *testing.T) {
	var gotUserAgent, gotAuthorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotAuthorization = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewTestClient(server.Client(), nil)
	_, err := client.Do(context.Background(), RequestDetail{
		URL:     server.URL,
		Headers: map[string]string{"User-Agent": "iPhone"},
		Token:   "Bearer abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, "iPhone", gotUserAgent)
	assert.Equal(t, "Bearer abc123", gotAuthorization)
}
