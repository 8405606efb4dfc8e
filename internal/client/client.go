package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/AlibekovAA/community-board/internal/common/constants"
	"github.com/AlibekovAA/community-board/internal/common/logger"
)

type Config struct {
	// BaseURL includes the route prefix, e.g. http://localhost:5000/api.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logger.Logger
}

// Client calls the board API and keeps the session alive: a request that
// fails with TOKEN_EXPIRED is retried once after a refresh.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *TokenManager
	log     *logger.Logger
}

func New(cfg Config, tokens *TokenManager) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.DefaultClientTimeout}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		baseURL: NormalizeBaseURL(cfg.BaseURL),
		http:    httpClient,
		tokens:  tokens,
		log:     log,
	}
}

func (c *Client) Tokens() *TokenManager {
	return c.tokens
}

// NormalizeBaseURL trims trailing slashes and falls back to the local
// default.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = constants.DefaultAPIBaseURL
	}
	return strings.TrimRight(raw, "/")
}

// BuildURL joins path to the base URL with exactly one slash.
func (c *Client) BuildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

type request struct {
	method string
	path   string
	body   any
	// anonymous requests carry no bearer token and are never retried.
	anonymous bool
}

// do sends a request and decodes the JSON response into out. Authenticated
// requests follow the single refresh-and-retry contract.
func (c *Client) do(ctx context.Context, req request, out any) error {
	err := c.send(ctx, req, out)
	if req.anonymous || !IsCode(err, CodeTokenExpired) {
		return err
	}

	c.log.WithFields(ctx, logger.Fields{
		"path":   req.path,
		"action": "client_token_expired",
	}).Debug("access token expired, refreshing once")

	if refreshErr := c.refresh(ctx); refreshErr != nil {
		c.log.WithFields(ctx, logger.Fields{
			"path":   req.path,
			"action": "client_refresh_failed",
		}).Warnf("session refresh failed: %v", refreshErr)
		return &RefreshError{Original: err, Refresh: refreshErr}
	}

	return c.send(ctx, req, out)
}

func (c *Client) refresh(ctx context.Context) error {
	refreshToken, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if refreshToken == "" {
		return ErrNotLoggedIn
	}

	var resp struct {
		Token string `json:"token"`
	}
	err = c.send(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/refresh",
		body:      map[string]string{"refreshToken": refreshToken},
		anonymous: true,
	}, &resp)
	if err != nil {
		return err
	}
	if resp.Token == "" {
		return errors.New("refresh response carried no token")
	}
	return c.tokens.SetAccessToken(ctx, resp.Token)
}

func (c *Client) send(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.BuildURL(req.path), body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	if !req.anonymous {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return err
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(ctx, logger.Fields{
		"method":   req.method,
		"path":     req.path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("api request")

	if !isJSON(resp.Header.Get("Content-Type")) {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrNonJSONResponse, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var env struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
		TraceID string         `json:"trace_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return &APIError{
		Status:  resp.StatusCode,
		Code:    env.Code,
		Message: env.Message,
		Details: env.Details,
		TraceID: env.TraceID,
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}
