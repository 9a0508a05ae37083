package content

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/pkg/models"
)

// ReviewFilter narrows FetchReviews. An empty Location returns every review.
type ReviewFilter struct {
	Location string
}

// FetchReviews returns the error instead of an empty list. Review widgets
// choose their own fallback.
func (c *Client) FetchReviews(ctx context.Context, f ReviewFilter) ([]models.Review, error) {
	path := "/reviews"
	if loc := strings.TrimSpace(f.Location); loc != "" {
		path += "?" + url.Values{"location": {loc}}.Encode()
	}
	var reviews []models.Review
	if _, err := c.getJSON(ctx, path, &reviews); err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

// SubmitReview posts a public review. The payload is validated first; a
// missing star rating never reaches the network.
func (c *Client) SubmitReview(ctx context.Context, in models.ReviewSubmission) (*models.Review, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Review = strings.TrimSpace(in.Review)
	if err := c.check(in); err != nil {
		return nil, err
	}
	var r models.Review
	if err := c.sendJSON(ctx, http.MethodPost, "/reviews", in, &r, false); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) DeleteReview(ctx context.Context, id string) (bool, error) {
	if err := c.sendJSON(ctx, http.MethodDelete, "/reviews/"+url.PathEscape(id), nil, nil, true); err != nil {
		return false, err
	}
	return true, nil
}
