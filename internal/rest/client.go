package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var ErrMissingServer = errors.New("rest: server URL is not configured")

const (
	csrfHeader = "X-CSRFToken"
	csrfCookie = "csrftoken"
	sessCookie = "sessionid"

	maxLoggedBody = 512
)

type Options struct {
	Server      string
	Credentials Credentials

	// RequestsPerSecond paces outgoing requests; zero disables pacing.
	RequestsPerSecond float64
	Burst             int

	// RetryMax bounds retries of reads. Mutating requests are never retried.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration

	Logger     zerolog.Logger
	HTTPClient *http.Client
}

// Client talks to the media server REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
	limiter    *rate.Limiter
	log        zerolog.Logger
}

func NewClient(opts Options) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(opts.Server), "/")
	if base == "" {
		return nil, ErrMissingServer
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	if opts.HTTPClient != nil {
		retryClient.HTTPClient = opts.HTTPClient
	}
	if opts.Timeout > 0 {
		retryClient.HTTPClient.Timeout = opts.Timeout
	}
	retryClient.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		retryClient.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		retryClient.RetryWaitMax = opts.RetryWaitMax
	}
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = retryLogger{log: opts.Logger}

	limit := rate.Inf
	burst := opts.Burst
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		httpClient: retryClient.StandardClient(),
		baseURL:    base,
		creds:      opts.Credentials,
		limiter:    rate.NewLimiter(limit, burst),
		log:        opts.Logger,
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

type retryableKey struct{}

// checkRetry only lets requests marked idempotent through the default policy.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ok, _ := ctx.Value(retryableKey{}).(bool); !ok {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// LaunchAlgorithm starts an algorithm on the media matched by req.MediaQuery.
func (c *Client) LaunchAlgorithm(ctx context.Context, projectID string, req AlgorithmLaunch) *Pending {
	return c.async(ctx, http.MethodPost, "/rest/AlgorithmLaunch/"+url.PathEscape(projectID), req)
}

// CreatePackage asks the server to build a downloadable archive.
func (c *Client) CreatePackage(ctx context.Context, projectID string, req PackageCreate) *Pending {
	return c.async(ctx, http.MethodPost, "/rest/PackageCreate/"+url.PathEscape(projectID), req)
}

// PatchMedias updates attributes of every media matched by query, which
// includes its leading '?'.
func (c *Client) PatchMedias(ctx context.Context, projectID, query string, req AttributePatch) *Pending {
	return c.async(ctx, http.MethodPatch, "/rest/EntityMedias/"+url.PathEscape(projectID)+query, req)
}

// ListMedia returns the media matched by query.
func (c *Client) ListMedia(ctx context.Context, projectID, query string) ([]Media, error) {
	path := "/rest/EntityMedias/" + url.PathEscape(projectID) + query
	resp, err := c.doRequest(withRetry(ctx), http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, statusError(http.MethodGet, path, resp)
	}
	var media []Media
	if err := json.Unmarshal(resp.Body, &media); err != nil {
		return nil, fmt.Errorf("decode media list: %w", err)
	}
	return media, nil
}

// SectionAnalysis returns aggregate counts for the media matched by query.
func (c *Client) SectionAnalysis(ctx context.Context, projectID, query string) (Analysis, error) {
	path := "/rest/SectionAnalysis/" + url.PathEscape(projectID) + query
	resp, err := c.doRequest(withRetry(ctx), http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, statusError(http.MethodGet, path, resp)
	}
	var analysis Analysis
	if err := json.Unmarshal(resp.Body, &analysis); err != nil {
		return nil, fmt.Errorf("decode section analysis: %w", err)
	}
	return analysis, nil
}

func withRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryableKey{}, true)
}

func (c *Client) async(ctx context.Context, method, path string, body any) *Pending {
	p := newPending()
	go func() {
		resp, err := c.doRequest(ctx, method, path, body)
		p.resolve(resp, err)
	}()
	return p
}

// doRequest performs a JSON request with credentials and pacing. Any HTTP
// status is returned as a Response; only transport failures are errors.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Body: raw}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &resp.Data); err != nil {
			resp.Data = nil
			resp.ParseErr = err
		}
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")
	return resp, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.creds.Token != "" {
		req.Header.Set("Authorization", "Token "+c.creds.Token)
	}
	if c.creds.CSRFToken != "" {
		req.Header.Set(csrfHeader, c.creds.CSRFToken)
		req.AddCookie(&http.Cookie{Name: csrfCookie, Value: c.creds.CSRFToken})
	}
	if c.creds.SessionID != "" {
		req.AddCookie(&http.Cookie{Name: sessCookie, Value: c.creds.SessionID})
	}
}

func statusError(method, path string, resp *Response) error {
	body := string(resp.Body)
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody]
	}
	return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: body}
}
