package content

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/pkg/models"
)

func (c *Client) LoadNewsletters(ctx context.Context) ([]models.Newsletter, error) {
	var out []models.Newsletter
	if _, err := c.getJSON(ctx, "/newsletters", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchNewsletters is LoadNewsletters with failures reported as an empty list.
func (c *Client) FetchNewsletters(ctx context.Context) []models.Newsletter {
	out, err := c.LoadNewsletters(ctx)
	if err != nil {
		c.logger.Warn("fetch newsletters failed", zap.Error(err))
		return []models.Newsletter{}
	}
	if out == nil {
		out = []models.Newsletter{}
	}
	return out
}

// SubscribeToNewsletter returns the server's message on success. On rejection
// the server's text is available through ServerMessage.
func (c *Client) SubscribeToNewsletter(ctx context.Context, s models.Subscription) (*models.SubscriptionResult, error) {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.Name = strings.TrimSpace(s.Name)
	if err := c.check(s); err != nil {
		return nil, err
	}
	var res models.SubscriptionResult
	if err := c.sendJSON(ctx, http.MethodPost, "/newsletter-subscriptions", s, &res, false); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) UnsubscribeFromNewsletter(ctx context.Context, id string) (*models.SubscriptionResult, error) {
	var res models.SubscriptionResult
	if err := c.sendJSON(ctx, http.MethodDelete, "/newsletter-subscriptions/"+url.PathEscape(id), nil, &res, false); err != nil {
		return nil, err
	}
	if res.ID == "" {
		res.ID = id
	}
	return &res, nil
}
