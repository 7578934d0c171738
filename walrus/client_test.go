package walrus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dapphub-labs/dapphub/config"
)

func newTestClient(publishers, aggregators []string, opts ...ClientOption) *Client {
	return NewClient(&config.BlobStoreConfig{
		PublisherEndpoints:  publishers,
		AggregatorEndpoints: aggregators,
	}, opts...)
}

func TestFetchFirstEndpointWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blob-1", r.URL.Path)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := newTestClient(nil, []string{srv.URL})
	content, err := c.Fetch(context.Background(), "blob-1")
	require.NoError(t, err)
	assert.Equal(t, "payload", content)
}

func TestFetchFallsThroughToNextEndpoint(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer good.Close()

	c := newTestClient(nil, []string{bad.URL, good.URL})
	content, err := c.Fetch(context.Background(), "blob-1")
	require.NoError(t, err)
	assert.Equal(t, "payload", content)
}

func TestFetchTimeoutFallsThrough(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer slow.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer good.Close()

	c := newTestClient(nil, []string{slow.URL, good.URL}, WithRequestTimeout(50*time.Millisecond))
	content, err := c.Fetch(context.Background(), "blob-1")
	require.NoError(t, err)
	assert.Equal(t, "payload", content)
}

func TestFetchAllEndpointsExhausted(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	c := newTestClient(nil, []string{bad.URL, bad.URL})
	_, err := c.Fetch(context.Background(), "blob-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestFetchIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("same bytes"))
	}))
	defer srv.Close()

	c := newTestClient(nil, []string{srv.URL})
	first, err := c.Fetch(context.Background(), "blob-1")
	require.NoError(t, err)
	second, err := c.Fetch(context.Background(), "blob-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUploadNewlyCreated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		_, _ = w.Write([]byte(`{"newlyCreated":{"blobObject":{"blobId":"abc123"}}}`))
	}))
	defer srv.Close()

	c := newTestClient([]string{srv.URL}, nil)
	blobID, err := c.Upload(context.Background(), []byte("content"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", blobID)
}

func TestUploadAlreadyCertified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"alreadyCertified":{"blobId":"abc123"}}`))
	}))
	defer srv.Close()

	c := newTestClient([]string{srv.URL}, nil)
	blobID, err := c.Upload(context.Background(), []byte("content"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", blobID)
}

func TestUploadFallsThroughToNextEndpoint(t *testing.T) {
	var badHits, goodHits int
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badHits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		goodHits++
		_, _ = w.Write([]byte(`{"alreadyCertified":{"blobId":"abc123"}}`))
	}))
	defer good.Close()

	c := newTestClient([]string{bad.URL, good.URL, good.URL}, nil)
	blobID, err := c.Upload(context.Background(), []byte("content"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", blobID)
	assert.Equal(t, 1, badHits)
	assert.Equal(t, 1, goodHits, "endpoints after the first success must not be tried")
}

func TestUploadAllEndpointsExhausted(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	c := newTestClient([]string{bad.URL, bad.URL}, nil)
	_, err := c.Upload(context.Background(), []byte("content"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllEndpointsExhausted)
}

func TestUploadMalformedEnvelopeFallsThrough(t *testing.T) {
	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	}))
	defer malformed.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"newlyCreated":{"blobObject":{"blobId":"abc123"}}}`))
	}))
	defer good.Close()

	c := newTestClient([]string{malformed.URL, good.URL}, nil)
	blobID, err := c.Upload(context.Background(), []byte("content"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", blobID)
}
