package yakoa

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

	"ipshield/internal/domain"

	"golang.org/x/time/rate"
)

const (
	maxResponseBytes = 1 << 20
	verifyPath       = "/content/verify"
	tokenPath        = "/token"
)

type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	limiter *rate.Limiter
	httpDo  func(*http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	// RatePerSecond paces outbound calls. Zero disables pacing.
	RatePerSecond int
	Timeout       time.Duration
	HTTPClient    *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("yakoa base url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: yakoa api key", domain.ErrNotConfigured)
	}
	doer := http.DefaultClient.Do
	if cfg.HTTPClient != nil {
		doer = cfg.HTTPClient.Do
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RatePerSecond)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: timeout,
		limiter: limiter,
		httpDo:  doer,
	}, nil
}

// Response is an upstream reply kept verbatim for callers that relay it.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type VerifyRequest struct {
	ContentURL  string `json:"content_url"`
	ContentType string `json:"content_type"`
	Title       string `json:"title,omitempty"`
	CreatorID   string `json:"creator_id,omitempty"`
}

// Verify asks the fingerprinting service about one piece of content. Network
// failures and non-2xx replies wrap domain.ErrUpstreamUnavailable.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (domain.VerificationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.VerificationResult{}, err
	}
	resp, err := c.do(ctx, http.MethodPost, verifyPath, body)
	if err != nil {
		return domain.VerificationResult{}, err
	}
	if !resp.OK() {
		return domain.VerificationResult{}, fmt.Errorf("%w: verify returned status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
	var reply verifyReply
	if err := json.Unmarshal(resp.Body, &reply); err != nil {
		return domain.VerificationResult{}, fmt.Errorf("%w: decode verify response: %v", domain.ErrUpstreamUnavailable, err)
	}
	return reply.toResult(), nil
}

// RegisterToken submits a token registration body and returns the reply as
// is, whatever its status code.
func (c *Client) RegisterToken(ctx context.Context, body []byte) (Response, error) {
	return c.do(ctx, http.MethodPost, tokenPath, body)
}

func (c *Client) GetToken(ctx context.Context, id string) (Response, error) {
	if strings.TrimSpace(id) == "" {
		return Response{}, fmt.Errorf("%w: token id is required", domain.ErrInvalidArgument)
	}
	return c.do(ctx, http.MethodGet, tokenPath+"/"+url.PathEscape(id), nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (Response, error) {
	if c == nil {
		return Response{}, fmt.Errorf("%w: yakoa client", domain.ErrNotConfigured)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpDo(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
	}
	return Response{StatusCode: resp.StatusCode, Body: wrapBody(raw)}, nil
}

// wrapBody keeps JSON replies verbatim and turns anything else into a JSON
// string so it can still be stored and relayed.
func wrapBody(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	encoded, err := json.Marshal(string(trimmed))
	if err != nil {
		return json.RawMessage("null")
	}
	return encoded
}
