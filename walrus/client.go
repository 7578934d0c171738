package walrus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dapphub-labs/dapphub/config"
	"github.com/dapphub-labs/dapphub/logging"
	"github.com/dapphub-labs/dapphub/metrics"
)

const DefaultRequestTimeout = 10 * time.Second

var (
	// ErrBlobNotFound means every aggregator endpoint was exhausted. Content
	// may be temporarily or permanently unavailable; it is not proof the blob
	// was never written.
	ErrBlobNotFound = errors.New("blob not found on any aggregator endpoint")
	// ErrAllEndpointsExhausted means every publisher endpoint failed the upload.
	ErrAllEndpointsExhausted = errors.New("all blob store endpoints exhausted")
)

// Store is the read/write surface of the replicated blob store.
type Store interface {
	Upload(ctx context.Context, payload []byte) (string, error)
	Fetch(ctx context.Context, blobID string) (string, error)
}

type ClientOption interface {
	Apply(*Client)
}

type ClientOptionFunc func(*Client)

// Apply set up the option field to the client instance.
func (f ClientOptionFunc) Apply(client *Client) {
	f(client)
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return ClientOptionFunc(func(client *Client) {
		client.hc = hc
	})
}

func WithRequestTimeout(timeout time.Duration) ClientOption {
	return ClientOptionFunc(func(client *Client) {
		client.timeout = timeout
	})
}

// Client talks to a replicated content-addressable blob store through ordered
// publisher (write) and aggregator (read) endpoint lists. Trying the next
// endpoint is the only retry strategy.
type Client struct {
	hc          *http.Client
	publishers  EndpointStrategy
	aggregators EndpointStrategy
	timeout     time.Duration
}

func NewClient(cfg *config.BlobStoreConfig, opts ...ClientOption) *Client {
	transport := &http.Transport{
		DisableCompression:  true,
		MaxIdleConnsPerHost: 1000,
		MaxConnsPerHost:     1000,
		IdleConnTimeout:     90 * time.Second,
	}
	client := &Client{
		hc: &http.Client{
			Transport: transport,
		},
		publishers:  OrderedEndpoints(cfg.PublisherEndpoints),
		aggregators: OrderedEndpoints(cfg.AggregatorEndpoints),
		timeout:     DefaultRequestTimeout,
	}
	if cfg.RequestTimeoutInSecs > 0 {
		client.timeout = time.Duration(cfg.RequestTimeoutInSecs) * time.Second
	}
	for _, opt := range opts {
		opt.Apply(client)
	}
	return client
}

// uploadResponse covers the two success envelopes the store can answer an
// upload with.
type uploadResponse struct {
	NewlyCreated *struct {
		BlobObject struct {
			BlobID string `json:"blobId"`
		} `json:"blobObject"`
	} `json:"newlyCreated"`
	AlreadyCertified *struct {
		BlobID string `json:"blobId"`
	} `json:"alreadyCertified"`
}

func (r *uploadResponse) blobID() string {
	if r.NewlyCreated != nil && r.NewlyCreated.BlobObject.BlobID != "" {
		return r.NewlyCreated.BlobObject.BlobID
	}
	if r.AlreadyCertified != nil && r.AlreadyCertified.BlobID != "" {
		return r.AlreadyCertified.BlobID
	}
	return ""
}

// Upload stores the payload and returns its content id. Publisher endpoints
// are tried in order; the first well-formed success wins and the rest are not
// tried.
func (c *Client) Upload(ctx context.Context, payload []byte) (string, error) {
	candidates := c.publishers.Candidates()
	var lastErr error
	for _, endpoint := range candidates {
		blobID, err := c.uploadTo(ctx, endpoint, payload)
		if err != nil {
			logging.Logger.Errorf("blob upload to %s failed, trying next endpoint, err=%s", endpoint, err.Error())
			metrics.BlobStoreFallbackCounter.Inc()
			lastErr = err
			continue
		}
		return blobID, nil
	}
	metrics.BlobStoreExhaustedCounter.Inc()
	if lastErr == nil {
		return "", ErrAllEndpointsExhausted
	}
	return "", fmt.Errorf("%w: last error: %s", ErrAllEndpointsExhausted, lastErr.Error())
}

func (c *Client) uploadTo(ctx context.Context, endpoint string, payload []byte) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading http response body %s", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("received non-OK response status: %s", resp.Status)
	}
	var envelope uploadResponse
	if err = json.Unmarshal(body, &envelope); err != nil {
		return "", err
	}
	blobID := envelope.blobID()
	if blobID == "" {
		return "", fmt.Errorf("malformed upload response from %s", endpoint)
	}
	return blobID, nil
}

// Fetch resolves a content id to its payload. Aggregator endpoints are tried
// in order, each bounded by the request timeout; a timeout or non-2xx answer
// falls through to the next endpoint. ErrBlobNotFound is returned only once
// every endpoint is exhausted.
func (c *Client) Fetch(ctx context.Context, blobID string) (string, error) {
	candidates := c.aggregators.Candidates()
	var lastErr error
	for _, endpoint := range candidates {
		content, err := c.fetchFrom(ctx, endpoint, blobID)
		if err != nil {
			logging.Logger.Debugf("blob fetch of %s from %s failed, trying next endpoint, err=%s", blobID, endpoint, err.Error())
			metrics.BlobStoreFallbackCounter.Inc()
			lastErr = err
			continue
		}
		return content, nil
	}
	metrics.BlobStoreExhaustedCounter.Inc()
	if lastErr != nil {
		logging.Logger.Errorf("blob %s unavailable on all endpoints, last err=%s", blobID, lastErr.Error())
	}
	return "", ErrBlobNotFound
}

func (c *Client) fetchFrom(ctx context.Context, endpoint, blobID string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	url := strings.TrimSuffix(endpoint, "/") + "/" + blobID
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading http response body %s", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("received non-OK response status: %s", resp.Status)
	}
	return string(body), nil
}
