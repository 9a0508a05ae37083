package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GalleryEntry is an image attached to a home. Older records store a bare
// URL string; newer ones store an object. Legacy marks the string form so it
// is written back the way it was read.
type GalleryEntry struct {
	URL              string `json:"url"`
	Title            string `json:"title,omitempty"`
	ShortDescription string `json:"shortDescription,omitempty"`
	LongDescription  string `json:"longDescription,omitempty"`
	ShowOnPage       bool   `json:"showOnPage"`
	Legacy           bool   `json:"-"`
}

// LegacyImage builds the bare-string form of a gallery entry.
func LegacyImage(url string) GalleryEntry {
	return GalleryEntry{URL: url, ShowOnPage: true, Legacy: true}
}

type galleryObject struct {
	URL              string `json:"url"`
	Title            string `json:"title"`
	ShortDescription string `json:"shortDescription"`
	LongDescription  string `json:"longDescription"`
	ShowOnPage       *bool  `json:"showOnPage"`
}

// UnmarshalJSON accepts either a string or an object.
func (g *GalleryEntry) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*g = GalleryEntry{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*g = LegacyImage(s)
		return nil
	}
	if b[0] != '{' {
		return fmt.Errorf("gallery entry: unexpected JSON %q", string(b))
	}
	var o galleryObject
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}
	show := true
	if o.ShowOnPage != nil {
		show = *o.ShowOnPage
	}
	*g = GalleryEntry{
		URL:              o.URL,
		Title:            o.Title,
		ShortDescription: o.ShortDescription,
		LongDescription:  o.LongDescription,
		ShowOnPage:       show,
	}
	return nil
}

// MarshalJSON writes legacy entries back as bare strings.
func (g GalleryEntry) MarshalJSON() ([]byte, error) {
	if g.Legacy {
		return json.Marshal(g.URL)
	}
	type plain GalleryEntry
	return json.Marshal(plain(g))
}

// Normalize returns the structured form of the entry.
func (g GalleryEntry) Normalize() GalleryEntry {
	if g.Legacy {
		return GalleryEntry{URL: g.URL, ShowOnPage: true}
	}
	return g
}

// VisibleGallery normalizes entries and drops hidden or empty ones.
func VisibleGallery(entries []GalleryEntry) []GalleryEntry {
	out := make([]GalleryEntry, 0, len(entries))
	for _, e := range entries {
		n := e.Normalize()
		if n.URL == "" || !n.ShowOnPage {
			continue
		}
		out = append(out, n)
	}
	return out
}
