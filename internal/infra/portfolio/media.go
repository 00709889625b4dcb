package portfolio

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"
)

const maxMediaBytes = 25 << 20

type Media struct {
	Data        []byte
	ContentType string
}

// StatusError is returned when the media host answers with a non-200 status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch media: status %d", e.Code)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Media, error)
}

type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: 60 * time.Second}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	if len(data) > maxMediaBytes {
		return nil, fmt.Errorf("fetch media: larger than %d bytes", maxMediaBytes)
	}
	return &Media{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

var imageExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
	"image/avif":    ".avif",
	"image/svg+xml": ".svg",
	"video/mp4":     ".mp4",
}

// extension prefers the extension in the URL path and falls back to the
// content type.
func extension(rawURL, contentType string) string {
	p, _, _ := strings.Cut(rawURL, "?")
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif", ".avif", ".svg", ".mp4":
		if ext == ".jpeg" {
			return ".jpg"
		}
		return ext
	}

	mt, _, err := mime.ParseMediaType(contentType)
	if err == nil {
		if e, ok := imageExtensions[mt]; ok {
			return e
		}
	}
	return ".jpg"
}
