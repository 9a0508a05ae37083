package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultURL is the public postcodes.io API.
const DefaultURL = "https://api.postcodes.io"

var (
	// ErrInvalidPostcode means the lookup service did not recognise the postcode.
	ErrInvalidPostcode = errors.New("geocode: invalid postcode")
	// ErrLookupFailed means the lookup service could not be reached or sent an unreadable body.
	ErrLookupFailed = errors.New("geocode: lookup failed")
)

// InvalidPostcodeMessage is shown to the visitor for ErrInvalidPostcode.
const InvalidPostcodeMessage = "Please enter a valid UK postcode."

// Coordinates is a point in decimal degrees.
type Coordinates struct {
	Postcode  string  `json:"postcode"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Cache stores successful lookups. Implementations decide how long entries live.
type Cache interface {
	GetPostcode(ctx context.Context, postcode string) (Coordinates, bool, error)
	SavePostcode(ctx context.Context, c Coordinates) error
}

// Client looks up UK postcodes.
type Client struct {
	url    string
	hc     *http.Client
	cache  Cache
	logger *zap.Logger
}

// NewClient creates a new client. If httpClient is nil, a default with timeout is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		url:    strings.TrimRight(baseURL, "/"),
		hc:     httpClient,
		logger: zap.NewNop(),
	}
}

// NewClientFromEnv reads POSTCODES_URL, defaulting to DefaultURL.
func NewClientFromEnv() *Client {
	return NewClient(os.Getenv("POSTCODES_URL"), nil)
}

// SetLogger injects a logger for request diagnostics.
func (c *Client) SetLogger(l *zap.Logger) {
	if l == nil {
		return
	}
	c.logger = l
}

// SetCache enables a lookup cache. Cache failures are logged and ignored.
func (c *Client) SetCache(cache Cache) {
	c.cache = cache
}

var postcodeShape = regexp.MustCompile(`^[A-Z]{1,2}[0-9][A-Z0-9]?[0-9][A-Z]{2}$`)

// Normalize upper-cases a postcode and drops spaces.
func Normalize(postcode string) string {
	return strings.ToUpper(strings.Join(strings.Fields(postcode), ""))
}

type lookupResponse struct {
	Status int `json:"status"`
	Result *struct {
		Postcode  string  `json:"postcode"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"result"`
	Error string `json:"error"`
}

// Lookup resolves a postcode to coordinates. Unknown or malformed postcodes
// return ErrInvalidPostcode; network and server trouble return ErrLookupFailed.
func (c *Client) Lookup(ctx context.Context, postcode string) (Coordinates, error) {
	pc := Normalize(postcode)
	if !postcodeShape.MatchString(pc) {
		return Coordinates{}, ErrInvalidPostcode
	}

	if c.cache != nil {
		coords, ok, err := c.cache.GetPostcode(ctx, pc)
		if err != nil {
			c.logger.Warn("postcode cache read failed", zap.String("postcode", pc), zap.Error(err))
		} else if ok {
			return coords, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/postcodes/"+url.PathEscape(pc), nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	lat := time.Since(start)
	c.logger.Debug("postcode lookup", zap.String("postcode", pc), zap.Duration("latency", lat), zap.Error(err))
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: read body: %w", ErrLookupFailed, err)
	}

	// any answer other than 200 is treated as the postcode being wrong
	if resp.StatusCode != http.StatusOK {
		c.logger.Info("postcode rejected", zap.String("postcode", pc), zap.Int("status", resp.StatusCode))
		return Coordinates{}, ErrInvalidPostcode
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Coordinates{}, fmt.Errorf("%w: decode: %w", ErrLookupFailed, err)
	}
	if parsed.Status != http.StatusOK || parsed.Result == nil {
		return Coordinates{}, ErrInvalidPostcode
	}

	coords := Coordinates{
		Postcode:  pc,
		Latitude:  parsed.Result.Latitude,
		Longitude: parsed.Result.Longitude,
	}
	if c.cache != nil {
		if err := c.cache.SavePostcode(ctx, coords); err != nil {
			c.logger.Warn("postcode cache write failed", zap.String("postcode", pc), zap.Error(err))
		}
	}
	return coords, nil
}
