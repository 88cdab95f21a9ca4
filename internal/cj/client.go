// Package cj is the signed HTTP client and token lifecycle for the CJ
// Dropshipping API.
package cj

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cj-bridge/internal/model"
	"cj-bridge/internal/transport"
)

// =============================================================================
// CJ API CLIENT
// =============================================================================
//
// Every business call goes through the same pipeline:
//   1. Ask the TokenSource for a valid access token (may log in or refresh)
//   2. Sign: sha256(userId + timestamp + apiKey + apiSecret) as hex
//   3. Send with CJ-Access-Token / CJ-Access-Timestamp / CJ-Access-Sign
//   4. Decode the envelope once; result:false becomes a supplier error
//
// Nothing is retried. Failures surface to the caller immediately.
// =============================================================================

const (
	// API paths, relative to the normalized base URL.
	pathLogin        = "/v1/authentication/getAccessToken"
	pathRefresh      = "/v1/authentication/refreshAccessToken"
	PathProductList  = "/v1/product/list"
	PathMyProducts   = "/v1/product/myProduct/query"
	PathProduct      = "/v1/product/query"
	PathVariants     = "/v1/product/variant/query"
	PathCategories   = "/v1/product/getCategory"
	PathFreight      = "/v1/logistic/freightCalculate"
	PathCreateOrder  = "/v1/shopping/order/createOrderV2"
	PathOrderDetail  = "/v1/shopping/order/getOrderDetail"
	PathTrackInfo    = "/v1/logistic/trackInfo"
	PathConfirmOrder = "/v1/shopping/order/confirmOrder"

	authTimeout = 15 * time.Second
	apiTimeout  = 45 * time.Second
)

// Credentials are the operator's CJ account details.
// Email and Password obtain tokens; UserID, APIKey and APISecret sign requests.
type Credentials struct {
	Email     string
	Password  string
	APIKey    string
	APISecret string
	UserID    string
}

// HasLogin reports whether both email and password are configured.
func (c Credentials) HasLogin() bool {
	return c.Email != "" && c.Password != ""
}

// TokenSource yields a currently valid access token.
type TokenSource interface {
	EnsureValid(ctx context.Context) (string, error)
}

// StatusError is a non-2xx response from CJ.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// Client is the CJ business API client. Safe for concurrent use.
type Client struct {
	baseURL    string
	creds      Credentials
	tokens     TokenSource
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a CJ API client. baseURL is normalized.
// A nil httpClient gets the 45s Chrome-fingerprint client.
func NewClient(baseURL string, creds Credentials, tokens TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(apiTimeout)
	}
	return &Client{
		baseURL:    NormalizeBaseURL(baseURL),
		creds:      creds,
		tokens:     tokens,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// NewHTTPClient returns an http.Client with the supplier transport and the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: transport.NewSupplierTransport(timeout),
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a signed GET and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.call(ctx, http.MethodGet, path, nil, out)
}

// Post performs a signed POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, body, out)
}

// Patch performs a signed PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	token, err := c.tokens.EnsureValid(ctx)
	if err != nil {
		return err
	}

	req, err := newRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", path, err)
	}
	signRequest(req, c.creds, token, c.now())

	return do(c.httpClient, req, out)
}

// === HTTP Helpers ===

// newRequest creates a JSON request. body may be nil.
func newRequest(ctx context.Context, method, rawURL string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	return req, nil
}

// do executes the request, checks the envelope and decodes data into out.
func do(httpClient *http.Client, req *http.Request, out any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError("CJ", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewUpstreamError("CJ", fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, body)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return model.NewUpstreamError("CJ", fmt.Errorf("parsing response: %w", err))
	}
	if !env.ok() {
		return model.NewSupplierError(env.Message)
	}

	if out != nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("parsing response data: %w", err)
		}
	}

	return nil
}

// parseError converts a non-2xx CJ response to model.APIError.
func parseError(statusCode int, body []byte) error {
	var env envelope
	json.Unmarshal(body, &env) // Best effort parse

	if statusCode == http.StatusTooManyRequests {
		return model.NewRateLimitError("CJ")
	}

	apiErr := model.NewUpstreamError("CJ", &StatusError{StatusCode: statusCode, Message: env.Message})
	if env.Message != "" {
		apiErr.Message = "CJ request failed: " + env.Message
	}
	return apiErr
}
