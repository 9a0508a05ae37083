package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/media"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/pkg/models"
)

func (c *Client) LoadNewsItems(ctx context.Context) ([]models.NewsItem, error) {
	var items []models.NewsItem
	if _, err := c.getJSON(ctx, "/news", &items); err != nil {
		return nil, err
	}
	for i := range items {
		c.normalizeNews(&items[i])
	}
	return items, nil
}

// FetchNewsItems is LoadNewsItems with failures reported as an empty list.
func (c *Client) FetchNewsItems(ctx context.Context) []models.NewsItem {
	items, err := c.LoadNewsItems(ctx)
	if err != nil {
		c.logger.Warn("fetch news failed", zap.Error(err))
		return []models.NewsItem{}
	}
	if items == nil {
		items = []models.NewsItem{}
	}
	return items
}

func (c *Client) LoadNewsItemByID(ctx context.Context, id string) (*models.NewsItem, error) {
	var n models.NewsItem
	if _, err := c.getJSON(ctx, "/news/"+url.PathEscape(id), &n); err != nil {
		return nil, err
	}
	if n.ID == "" {
		return nil, fmt.Errorf("%w: news item %q came back without an id", ErrMalformedResponse, id)
	}
	c.normalizeNews(&n)
	return &n, nil
}

// FetchNewsItemByID is LoadNewsItemByID with failures reported as nil.
func (c *Client) FetchNewsItemByID(ctx context.Context, id string) *models.NewsItem {
	n, err := c.LoadNewsItemByID(ctx, id)
	if err != nil {
		c.logger.Warn("fetch news item failed", zap.String("id", id), zap.Error(err))
		return nil
	}
	return n
}

func (c *Client) CreateNewsItem(ctx context.Context, item models.NewsItem) (*models.NewsItem, error) {
	return c.sendNews(ctx, http.MethodPost, "/news", item)
}

func (c *Client) UpdateNewsItem(ctx context.Context, id string, item models.NewsItem) (*models.NewsItem, error) {
	return c.sendNews(ctx, http.MethodPut, "/news/"+url.PathEscape(id), item)
}

func (c *Client) DeleteNewsItem(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/news/"+url.PathEscape(id), nil, nil, true)
}

func (c *Client) sendNews(ctx context.Context, method, path string, item models.NewsItem) (*models.NewsItem, error) {
	body, contentType, err := newsForm(item)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, request{method: method, path: path, body: body, contentType: contentType, authed: true})
	if err != nil {
		return nil, err
	}
	var n models.NewsItem
	if err := decode(resp, &n); err != nil {
		return nil, err
	}
	c.normalizeNews(&n)
	return &n, nil
}

// unreadableImageMessage is shown when an inline image cannot be decoded.
const unreadableImageMessage = "One of the images could not be read. Please choose the file again."

// newsForm encodes item as multipart form data. Inline data URIs become file
// parts; hosted URLs are sent as text so they are not uploaded again.
func newsForm(item models.NewsItem) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := []struct{ name, value string }{
		{"title", item.Title},
		{"excerpt", item.Excerpt},
		{"fullDescription", item.FullDescription},
		{"date", item.Date},
		{"category", item.Category},
		{"location", item.Location},
		{"videoUrl", item.VideoURL},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if item.Image != "" {
		if strings.HasPrefix(item.Image, "data:") {
			blob, err := media.DataURIToBlob(item.Image)
			if err != nil {
				return nil, "", &ValidationError{Field: "image", Message: unreadableImageMessage}
			}
			if err := writeBlob(w, "image", blob.Filename("image"), blob); err != nil {
				return nil, "", err
			}
		} else if err := w.WriteField("image", item.Image); err != nil {
			return nil, "", err
		}
	}

	existing := []string{}
	for i, g := range item.Gallery {
		if !strings.HasPrefix(g, "data:") {
			existing = append(existing, g)
			continue
		}
		blob, err := media.DataURIToBlob(g)
		if err != nil {
			return nil, "", &ValidationError{Field: "gallery", Message: unreadableImageMessage}
		}
		if err := writeBlob(w, "gallery", blob.Filename(fmt.Sprintf("gallery-%d", i)), blob); err != nil {
			return nil, "", err
		}
	}
	ex, err := json.Marshal(existing)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("existingGallery", string(ex)); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func writeBlob(w *multipart.Writer, field, filename string, blob *media.Blob) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", blob.MIMEType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(blob.Data)
	return err
}
