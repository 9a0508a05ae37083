package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"go.uber.org/zap"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/cache"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/pkg/models"
)

// LoadHomes returns every home. It is not cached here; the homes list is
// cached by the caller after mapping.
func (c *Client) LoadHomes(ctx context.Context) ([]models.Home, error) {
	var homes []models.Home
	if _, err := c.getJSON(ctx, "/homes", &homes); err != nil {
		return nil, err
	}
	for i := range homes {
		c.normalizeHome(&homes[i])
	}
	return homes, nil
}

// FetchHomes is LoadHomes with failures reported as an empty list.
func (c *Client) FetchHomes(ctx context.Context) []models.Home {
	homes, err := c.LoadHomes(ctx)
	if err != nil {
		c.logger.Warn("fetch homes failed", zap.Error(err))
		return []models.Home{}
	}
	if homes == nil {
		homes = []models.Home{}
	}
	return homes
}

// LoadHome returns one home. A snapshot under home_<id> is returned without
// touching the network, however old. Misses are fetched and the raw response
// stored; failures are never stored.
func (c *Client) LoadHome(ctx context.Context, id string) (*models.Home, error) {
	key := cache.HomeKey(id)

	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var h models.Home
		derr := decode(raw, &h)
		if derr == nil {
			c.normalizeHome(&h)
			return &h, nil
		}
		c.logger.Warn("discarding unreadable cached home", zap.String("key", key), zap.Error(derr))
	case !errors.Is(err, cache.ErrMiss):
		c.logger.Warn("session cache read failed", zap.String("key", key), zap.Error(err))
	}

	var h models.Home
	raw, err = c.getJSON(ctx, "/homes/"+url.PathEscape(id), &h)
	if err != nil {
		return nil, err
	}
	if h.ID == "" {
		return nil, fmt.Errorf("%w: home %q came back without an id", ErrMalformedResponse, id)
	}
	if err := c.cache.Set(ctx, key, raw); err != nil {
		c.logger.Warn("session cache write failed", zap.String("key", key), zap.Error(err))
	}
	c.normalizeHome(&h)
	return &h, nil
}

// FetchHome is LoadHome with failures reported as nil.
func (c *Client) FetchHome(ctx context.Context, id string) *models.Home {
	h, err := c.LoadHome(ctx, id)
	if err != nil {
		c.logger.Warn("fetch home failed", zap.String("id", id), zap.Error(err))
		return nil
	}
	return h
}

// FetchCareSections returns the visible care sections of a home in display order.
func (c *Client) FetchCareSections(ctx context.Context, homeID string) []models.CareSection {
	h := c.FetchHome(ctx, homeID)
	if h == nil {
		return []models.CareSection{}
	}
	out := make([]models.CareSection, 0, len(h.CareSections))
	for _, s := range h.CareSections {
		if s.Visible {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (c *Client) CreateHome(ctx context.Context, data models.Home) (*models.Home, error) {
	var h models.Home
	if err := c.sendJSON(ctx, http.MethodPost, "/homes", data, &h, true); err != nil {
		return nil, err
	}
	c.normalizeHome(&h)
	return &h, nil
}

// UpdateHome does not refresh the session snapshot of the home.
func (c *Client) UpdateHome(ctx context.Context, id string, data models.Home) (*models.Home, error) {
	var h models.Home
	if err := c.sendJSON(ctx, http.MethodPut, "/homes/"+url.PathEscape(id), data, &h, true); err != nil {
		return nil, err
	}
	c.normalizeHome(&h)
	return &h, nil
}

func (c *Client) DeleteHome(ctx context.Context, id string) (*models.Home, error) {
	var h models.Home
	if err := c.sendJSON(ctx, http.MethodDelete, "/homes/"+url.PathEscape(id), nil, &h, true); err != nil {
		return nil, err
	}
	return &h, nil
}
