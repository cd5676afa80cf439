package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPush(t *testing.T) {
	payload := []byte(`{"streams":[]}`)

	var (
		gotPath     string
		gotEncoding string
		gotType     string
		gotReqID    string
		gotUser     string
		gotPass     string
		gotBody     []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotEncoding = r.Header.Get("Content-Encoding")
		gotType = r.Header.Get("Content-Type")
		gotReqID = r.Header.Get("X-Request-ID")
		gotUser, gotPass, _ = r.BasicAuth()

		zr, err := gzip.NewReader(r.Body)
		require.NoError(t, err)
		gotBody, err = io.ReadAll(zr)
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "tenant", "secret", discardLogger())
	require.NoError(t, c.Push(context.Background(), payload))

	assert.Equal(t, "/loki/api/v1/push", gotPath)
	assert.Equal(t, "gzip", gotEncoding)
	assert.Equal(t, "application/json", gotType)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, "tenant", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.Equal(t, payload, gotBody)
}

func TestPushTrimsTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "", "", discardLogger())
	require.NoError(t, c.Push(context.Background(), []byte("{}")))
	assert.Equal(t, "/loki/api/v1/push", gotPath)
}

func TestPushNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "entry too far behind", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", discardLogger())
	err := c.Push(context.Background(), []byte("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "entry too far behind")
}

func TestPushEmptyPayloadIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty payload")
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", discardLogger())
	assert.NoError(t, c.Push(context.Background(), nil))
}

func TestPushContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL, "", "", discardLogger())
	assert.Error(t, c.Push(ctx, []byte("{}")))
}
