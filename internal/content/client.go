// Package content is the data access layer for the remote content API:
// homes, news, reviews, newsletters and care enquiries.
//
// Reads come in two forms. Load* returns the error; Fetch* logs it and
// returns an empty list or nil so pages fall back to default content.
// Writes always return their error.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/cache"
)

// AuthProvider supplies the headers attached to authenticated writes.
type AuthProvider interface {
	AuthHeader(ctx context.Context) (http.Header, error)
}

// AuthFunc adapts a function to AuthProvider.
type AuthFunc func(ctx context.Context) (http.Header, error)

func (f AuthFunc) AuthHeader(ctx context.Context) (http.Header, error) { return f(ctx) }

// StaticToken is a fixed bearer token.
type StaticToken string

func (t StaticToken) AuthHeader(context.Context) (http.Header, error) {
	h := http.Header{}
	if t != "" {
		h.Set("Authorization", "Bearer "+string(t))
	}
	return h, nil
}

type Client struct {
	baseURL  string
	siteRoot string
	hc       *http.Client
	cache    cache.Cache
	auth     AuthProvider
	logger   *zap.Logger
	validate *validator.Validate
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient. Its timeout is the only one applied.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithSiteRoot sets the origin prefixed to site-rooted image paths.
func WithSiteRoot(root string) Option {
	return func(c *Client) { c.siteRoot = root }
}

func WithCache(cc cache.Cache) Option {
	return func(c *Client) {
		if cc != nil {
			c.cache = cc
		}
	}
}

func WithAuth(a AuthProvider) Option {
	return func(c *Client) { c.auth = a }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the API at baseURL. Without WithCache, reads are
// not cached.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		hc:       http.DefaultClient,
		cache:    cache.Nop{},
		logger:   zap.NewNop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Session returns a copy of c that reads and writes cc. Used to bind one
// browsing session's cache.
func (c *Client) Session(cc cache.Cache) *Client {
	cp := *c
	if cc == nil {
		cc = cache.Nop{}
	}
	cp.cache = cc
	return &cp
}

// Authenticated returns a copy of c that signs writes with a.
func (c *Client) Authenticated(a AuthProvider) *Client {
	cp := *c
	cp.auth = a
	return &cp
}

// SiteRoot is the origin used for image paths.
func (c *Client) SiteRoot() string {
	return c.siteRoot
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	authed      bool
}

func (c *Client) jsonRequest(method, path string, v any, authed bool) (request, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return request{}, fmt.Errorf("marshal %s %s: %w", method, path, err)
	}
	return request{method: method, path: path, body: bytes.NewReader(b), contentType: "application/json", authed: authed}, nil
}

// do sends r and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return nil, fmt.Errorf("new request %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.authed && c.auth != nil {
		h, err := c.auth.AuthHeader(ctx)
		if err != nil {
			return nil, fmt.Errorf("auth header: %w", err)
		}
		for k, vs := range h {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.logger.Debug("content request failed",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, r.method, r.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.logger.Debug("content request",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %w", ErrTransport, r.method, r.path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method:     r.method,
			Path:       r.path,
			StatusCode: resp.StatusCode,
			Message:    serverMessage(body),
		}
	}
	return body, nil
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// getJSON issues a GET and decodes the body into v. The raw body is returned
// for callers that cache it.
func (c *Client) getJSON(ctx context.Context, path string, v any) ([]byte, error) {
	body, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	if err := decode(body, v); err != nil {
		return nil, err
	}
	return body, nil
}

// sendJSON marshals in, sends it, and decodes the response into out when out is not nil.
func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any, authed bool) error {
	var r request
	if in != nil {
		var err error
		r, err = c.jsonRequest(method, path, in, authed)
		if err != nil {
			return err
		}
	} else {
		r = request{method: method, path: path, authed: authed}
	}
	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return decode(body, out)
}
