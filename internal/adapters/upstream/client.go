// Package upstream is a thin typed client for the festival REST API.
//
// Every method issues a single GET, decodes the JSON body and reports failures
// as ErrTransport, ErrStatus (*StatusError) or ErrDecode. Nothing is cached.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/okian/festboard/internal/domain/model"
	"github.com/okian/festboard/pkg/logger"
	"github.com/okian/festboard/pkg/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 64 << 10
)

// Client talks to the festival API.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	log     logger.Logger
}

// New returns a client rooted at baseURL, e.g. "https://host/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		base:    strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout: defaultTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.base
}

// Leaderboards fetches GET /leaderboards.
func (c *Client) Leaderboards(ctx context.Context) (model.Leaderboards, error) {
	var out model.Leaderboards
	err := c.get(ctx, "/leaderboards", "/leaderboards", nil, &out)
	return out, err
}

// Programmes fetches GET /programmes.
func (c *Client) Programmes(ctx context.Context) ([]model.Programme, error) {
	var out []model.Programme
	err := c.get(ctx, "/programmes", "/programmes", nil, &out)
	return out, err
}

// Programme fetches GET /programmes/{id}.
func (c *Client) Programme(ctx context.Context, id string) (model.Programme, error) {
	var out model.Programme
	err := c.get(ctx, "/programmes/{id}", "/programmes/"+url.PathEscape(id), nil, &out)
	return out, err
}

// ProgrammeResults fetches GET /programmes/{id}/results.
func (c *Client) ProgrammeResults(ctx context.Context, id string) ([]model.Result, error) {
	var out []model.Result
	err := c.get(ctx, "/programmes/{id}/results", "/programmes/"+url.PathEscape(id)+"/results", nil, &out)
	return out, err
}

// Candidates fetches GET /candidates.
func (c *Client) Candidates(ctx context.Context) ([]model.Candidate, error) {
	var out []model.Candidate
	err := c.get(ctx, "/candidates", "/candidates", nil, &out)
	return out, err
}

// Candidate fetches GET /candidates/{id}.
func (c *Client) Candidate(ctx context.Context, id string) (model.Candidate, error) {
	var out model.Candidate
	err := c.get(ctx, "/candidates/{id}", "/candidates/"+url.PathEscape(id), nil, &out)
	return out, err
}

// SearchCandidates fetches GET /candidates/search?term=.
func (c *Client) SearchCandidates(ctx context.Context, term string) ([]model.Candidate, error) {
	var out []model.Candidate
	err := c.get(ctx, "/candidates/search", "/candidates/search", url.Values{"term": {term}}, &out)
	return out, err
}

// CandidateResults fetches GET /candidates/{id}/results.
func (c *Client) CandidateResults(ctx context.Context, id string) ([]model.Result, error) {
	var out []model.Result
	err := c.get(ctx, "/candidates/{id}/results", "/candidates/"+url.PathEscape(id)+"/results", nil, &out)
	return out, err
}

// CertificateURL returns the address of the certificate document. The
// document is binary and never fetched by this client.
func (c *Client) CertificateURL(programmeID, resultID string) string {
	return c.base + "/programmes/" + url.PathEscape(programmeID) +
		"/results/" + url.PathEscape(resultID) + "/certificate"
}

// get issues GET base+path and decodes the JSON body into out. endpoint is the
// low-cardinality route used for metrics and logs.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrTransport, path, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "transport_error", latency)
		metrics.RecordErrorByComponent("upstream", "transport")
		c.log.Warn(ctx, "upstream request failed",
			logger.String("endpoint", endpoint),
			logger.String("path", path),
			logger.Error(err))
		return fmt.Errorf("%w: GET %s: %w", ErrTransport, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode), latency)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Path: path, Code: resp.StatusCode, Message: errorMessage(resp.Body)}
		metrics.RecordErrorByComponent("upstream", "status")
		c.log.Warn(ctx, "upstream returned error status",
			logger.String("endpoint", endpoint),
			logger.String("path", path),
			logger.Int("status", resp.StatusCode),
			logger.String("message", se.Message))
		return se
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordErrorByComponent("upstream", "decode")
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: GET %s: %w", ErrTransport, path, err)
		}
		return fmt.Errorf("%w: GET %s: %w", ErrDecode, path, err)
	}

	c.log.Debug(ctx, "upstream request",
		logger.String("endpoint", endpoint),
		logger.String("path", path),
		logger.Float64("latency_ms", latency))
	return nil
}

// errorMessage extracts {"message": "..."} from an error body.
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}
