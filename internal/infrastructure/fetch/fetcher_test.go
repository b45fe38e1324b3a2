package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prixy/backend/internal/domain"
)

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sv-SE,sv;q=0.9,en;q=0.8", r.Header.Get("Accept-Language"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Write([]byte("<html><title>Produkt</title></html>"))
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "")
	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "Produkt")
}

func TestFetchNon2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "")
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPageFetch))
	assert.Contains(t, err.Error(), "403")
}

func TestFetchTransportError(t *testing.T) {
	f := NewFetcher(time.Second, "")
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPageFetch))
}

func TestFetchContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := NewFetcher(5*time.Second, "")
	_, err := f.Fetch(ctx, server.URL)
	require.Error(t, err)
}
