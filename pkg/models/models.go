package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Home represents a single care home as modeled by the content API.
type Home struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Location          string         `json:"location"`
	FacilitiesGallery []GalleryEntry `json:"facilitiesGallery,omitempty"`
	ActivitiesGallery []GalleryEntry `json:"activitiesGallery,omitempty"`
	TeamGallery       []GalleryEntry `json:"teamGallery,omitempty"`
	BannerImages      []string       `json:"bannerImages,omitempty"`
	ReportURL         string         `json:"reportUrl,omitempty"`
	NewsletterURL     string         `json:"newsletterUrl,omitempty"`
	CareSections      []CareSection  `json:"careSections,omitempty"`
}

// CareSection is one structured block of care information shown on a home page.
type CareSection struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Order       int    `json:"order"`
	Visible     bool   `json:"visible"`
}

// UnmarshalJSON treats a missing visible flag as visible, like gallery entries.
func (c *CareSection) UnmarshalJSON(b []byte) error {
	type plain CareSection
	var aux struct {
		plain
		Visible *bool `json:"visible"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = CareSection(aux.plain)
	c.Visible = aux.Visible == nil || *aux.Visible
	return nil
}

// NewsItem represents a news post. Category and Location are free-form.
type NewsItem struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Excerpt         string   `json:"excerpt"`
	FullDescription string   `json:"fullDescription,omitempty"`
	Date            string   `json:"date"`
	Category        string   `json:"category"`
	Location        string   `json:"location"`
	Image           string   `json:"image,omitempty"`
	Gallery         []string `json:"gallery,omitempty"`
	VideoURL        string   `json:"videoUrl,omitempty"`
}

var newsDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// PublishedAt parses Date. The zero time is returned for unparseable dates.
func (n NewsItem) PublishedAt() time.Time {
	d := strings.TrimSpace(n.Date)
	for _, layout := range newsDateLayouts {
		if t, err := time.Parse(layout, d); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DefaultReviewerName is shown for reviews submitted without a name.
const DefaultReviewerName = "Verified Resident"

// Review is a public review of a home.
type Review struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Review    string `json:"review"`
	Rating    int    `json:"rating"`
	Location  string `json:"location"`
	Source    string `json:"source,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// DisplayName returns the reviewer name or DefaultReviewerName.
func (r Review) DisplayName() string {
	if n := strings.TrimSpace(r.Name); n != "" {
		return n
	}
	return DefaultReviewerName
}

// ReviewSubmission is the payload of the public review form.
type ReviewSubmission struct {
	Name     string `json:"name,omitempty" validate:"max=120"`
	Review   string `json:"review" validate:"required,max=5000"`
	Rating   int    `json:"rating" validate:"min=1,max=5"`
	Location string `json:"location" validate:"required"`
	Source   string `json:"source,omitempty"`
}

// Newsletter is a monthly newsletter issue published as a PDF.
type Newsletter struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	FileURL     string `json:"fileUrl"`
}

// Subscription is a newsletter subscription request.
type Subscription struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty" validate:"max=120"`
}

// SubscriptionResult carries the server's own message for subscribe and unsubscribe.
type SubscriptionResult struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// CareEnquiry is sent from the contact and care pages.
type CareEnquiry struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"max=40"`
	Home     string `json:"home,omitempty"`
	CareType string `json:"careType,omitempty"`
	Message  string `json:"message" validate:"required,max=5000"`
}

// FacilityLocation is a fixed point used by the nearest-home search.
type FacilityLocation struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Image     string  `json:"image,omitempty"`
	Link      string  `json:"link"`
}
