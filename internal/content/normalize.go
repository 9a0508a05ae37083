package content

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/media"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/pkg/models"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func descriptionPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
		policy.AllowElements("u", "s", "mark")
	})
	return policy
}

// sanitizeHTML cleans home description markup written in the admin editor.
func sanitizeHTML(s string) string {
	if s == "" {
		return ""
	}
	return descriptionPolicy().Sanitize(s)
}

func (c *Client) normalizeHome(h *models.Home) {
	h.Name = html.UnescapeString(h.Name)
	h.Location = html.UnescapeString(h.Location)
	h.Description = sanitizeHTML(h.Description)
	h.FacilitiesGallery = c.normalizeGallery(h.FacilitiesGallery)
	h.ActivitiesGallery = c.normalizeGallery(h.ActivitiesGallery)
	h.TeamGallery = c.normalizeGallery(h.TeamGallery)
	h.BannerImages = media.NormalizeImagePaths(c.siteRoot, h.BannerImages)
	for i := range h.CareSections {
		s := &h.CareSections[i]
		s.Title = html.UnescapeString(s.Title)
		s.Description = html.UnescapeString(s.Description)
		s.Image = media.NormalizeImagePath(c.siteRoot, s.Image)
	}
}

func (c *Client) normalizeGallery(entries []models.GalleryEntry) []models.GalleryEntry {
	for i := range entries {
		e := &entries[i]
		e.URL = media.NormalizeImagePath(c.siteRoot, e.URL)
		e.Title = html.UnescapeString(e.Title)
		e.ShortDescription = html.UnescapeString(e.ShortDescription)
		e.LongDescription = html.UnescapeString(e.LongDescription)
	}
	return entries
}

func (c *Client) normalizeNews(n *models.NewsItem) {
	n.Image = media.NormalizeImagePath(c.siteRoot, n.Image)
	n.Gallery = media.NormalizeImagePaths(c.siteRoot, n.Gallery)
}
