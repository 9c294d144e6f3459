package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/sirupsen/logrus"

	"github.com/dm/starsearch/internal/apperr"
)

// maxResponseBytes caps how much of a response body is read into memory.
const maxResponseBytes = 64 * 1024 * 1024

// InfoAPI reports cluster identity from the root endpoint.
type InfoAPI interface {
	Info(ctx context.Context) (*ClusterInfo, error)
}

// LifecycleAPI covers the Elasticsearch ILM and OpenSearch ISM endpoints plus
// the store statistics the lifecycle view needs.
type LifecycleAPI interface {
	InfoAPI
	GetILMExplain(ctx context.Context) (*ILMExplainResponse, error)
	GetILMPolicies(ctx context.Context) (map[string]ILMPolicyEntry, error)
	GetILMPolicy(ctx context.Context, name string) (map[string]ILMPolicyEntry, error)
	PutILMPolicy(ctx context.Context, name string, body any) error
	GetISMExplain(ctx context.Context) (OrderedObject, error)
	GetISMPolicies(ctx context.Context) (*ISMPoliciesResponse, error)
	GetIndexStoreStats(ctx context.Context) (*IndexStatsResponse, error)
}

// SavedObjectAPI covers the dashboards saved-object index.
type SavedObjectAPI interface {
	SearchSavedObjects(ctx context.Context, index string, from, size int) (*SearchResponse, error)
	PutSavedObject(ctx context.Context, index, docID string, doc any) (int, []byte, error)
	DeleteSavedObject(ctx context.Context, index, docID string) error
}

// ESClient is the full surface the CLI drives against one cluster.
type ESClient interface {
	LifecycleAPI
	SavedObjectAPI
	DeleteIndex(ctx context.Context, names []string) error
	Raw(ctx context.Context, method, path string) (int, []byte, error)
	BaseURL() string
}

// ClientConfig holds configuration for DefaultClient.
type ClientConfig struct {
	// BaseURL is protocol://host[/cluster_path]; every request path is
	// appended to it.
	BaseURL            string
	Username           string
	Password           string
	InsecureSkipVerify bool
	RequestTimeout     time.Duration
	// MaxRetries is the number of extra attempts on 502/503/504 and
	// connection errors. Zero disables retries.
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

// DefaultClient implements ESClient on top of the opensearch-go transport,
// which works against both Elasticsearch and OpenSearch for raw requests.
type DefaultClient struct {
	os     *opensearch.Client
	config ClientConfig
	log    *logrus.Logger
}

// NewDefaultClient constructs a DefaultClient from the given config.
// Basic auth is only sent when both username and password are set.
// Returns an error if BaseURL is empty.
func NewDefaultClient(cfg ClientConfig) (*DefaultClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	osCfg := opensearch.Config{
		Addresses:     []string{cfg.BaseURL},
		Transport:     transport,
		MaxRetries:    cfg.MaxRetries,
		DisableRetry:  cfg.MaxRetries <= 0,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		RetryBackoff: func(attempt int) time.Duration {
			return cfg.RetryBackoff * time.Duration(1<<(attempt-1))
		},
	}
	if cfg.Username != "" && cfg.Password != "" {
		osCfg.Username = cfg.Username
		osCfg.Password = cfg.Password
	}

	osClient, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}

	return &DefaultClient{os: osClient, config: cfg, log: log}, nil
}

// BaseURL returns the configured base URL of the cluster.
func (c *DefaultClient) BaseURL() string {
	return c.config.BaseURL
}

// do performs a request against path (relative to BaseURL) and returns the
// status and body whatever the status. Only transport failures are errors.
func (c *DefaultClient) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.os.Perform(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxResponseBytes {
		return 0, nil, fmt.Errorf("response body exceeds %d MB limit", maxResponseBytes/(1024*1024))
	}

	c.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("cluster request")

	return resp.StatusCode, data, nil
}

// doGet performs a GET request and returns the body, or a RejectedError on
// non-2xx status.
func (c *DefaultClient) doGet(ctx context.Context, path string) ([]byte, error) {
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &apperr.RejectedError{StatusCode: status, Body: string(body)}
	}
	return body, nil
}

// doDelete performs a DELETE request. A 404 is reported as kind/name not found.
func (c *DefaultClient) doDelete(ctx context.Context, path, kind, name string) error {
	status, body, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return &apperr.NotFoundError{Kind: kind, Name: name}
	}
	if !isSuccess(status) {
		return &apperr.RejectedError{StatusCode: status, Body: string(body)}
	}
	return nil
}

// Info fetches the root endpoint through the typed opensearch-go API.
func (c *DefaultClient) Info(ctx context.Context) (*ClusterInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	res, err := c.os.Info(c.os.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("Info: do request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("Info: read body: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("Info: %w", &apperr.RejectedError{StatusCode: res.StatusCode, Body: string(body)})
	}

	var info ClusterInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("Info decode: %w", apperr.Malformed(err))
	}
	return &info, nil
}

// Raw issues a request to an arbitrary path and returns status and body as-is.
func (c *DefaultClient) Raw(ctx context.Context, method, path string) (int, []byte, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.do(ctx, method, path, nil)
}

// IsRejected reports whether err carries a non-2xx backend response.
func IsRejected(err error) (*apperr.RejectedError, bool) {
	var rej *apperr.RejectedError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
