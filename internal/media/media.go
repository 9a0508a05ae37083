package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// NormalizeImagePath makes site-rooted paths absolute against siteRoot.
// http(s) and data: values, and anything not starting with "/", pass through.
func NormalizeImagePath(siteRoot, p string) string {
	if p == "" || strings.HasPrefix(p, "http") || strings.HasPrefix(p, "data:") {
		return p
	}
	if strings.HasPrefix(p, "/") {
		return strings.TrimRight(siteRoot, "/") + p
	}
	return p
}

// NormalizeImagePaths applies NormalizeImagePath to every entry.
func NormalizeImagePaths(siteRoot string, paths []string) []string {
	if paths == nil {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = NormalizeImagePath(siteRoot, p)
	}
	return out
}

// Blob is a decoded inline image ready to be uploaded as a file part.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Filename returns a name for the upload part, derived from the MIME subtype.
func (b *Blob) Filename(base string) string {
	ext := "bin"
	if _, sub, ok := strings.Cut(b.MIMEType, "/"); ok && sub != "" {
		ext, _, _ = strings.Cut(sub, "+")
	}
	switch ext {
	case "jpeg":
		ext = "jpg"
	case "octet-stream":
		ext = "bin"
	}
	return base + "." + ext
}

var ErrNotDataURI = errors.New("media: not a data URI")

// IsHosted reports whether s already points at a hosted resource.
func IsHosted(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "blob:")
}

// DataURIToBlob decodes a base64 data URI. Hosted URLs return (nil, nil),
// meaning the value is already uploaded and must not be sent again.
func DataURIToBlob(s string) (*Blob, error) {
	if IsHosted(s) {
		return nil, nil
	}
	if !strings.HasPrefix(s, "data:") {
		return nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrNotDataURI)
	}

	mimeType, _, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}
	return &Blob{MIMEType: mimeType, Data: data}, nil
}
