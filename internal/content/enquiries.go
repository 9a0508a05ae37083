package content

import (
	"context"
	"net/http"
	"strings"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/pkg/models"
)

// SubmitCareEnquiry sends a contact form enquiry and returns the server's message.
func (c *Client) SubmitCareEnquiry(ctx context.Context, e models.CareEnquiry) (string, error) {
	e.Name = strings.TrimSpace(e.Name)
	e.Email = strings.TrimSpace(e.Email)
	e.Message = strings.TrimSpace(e.Message)
	if err := c.check(e); err != nil {
		return "", err
	}
	var res struct {
		Message string `json:"message"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, "/care-enquiries", e, &res, false); err != nil {
		return "", err
	}
	return res.Message, nil
}
