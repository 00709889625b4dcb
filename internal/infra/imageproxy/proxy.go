package imageproxy

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/studio-funnel/internal/infra/integration/notion"
	"github.com/xavierca1/studio-funnel/internal/infra/portfolio"
	"github.com/zeebo/blake3"
)

var (
	ErrInvalidURL    = errors.New("imageproxy: invalid url")
	ErrHostForbidden = errors.New("imageproxy: host not allowed")
)

// Refresher issues a new signed URL for a media object.
type Refresher interface {
	FreshURL(ctx context.Context, objectPath string) (string, error)
}

type Proxy struct {
	Fetcher   portfolio.Fetcher
	Cache     URLCache
	Refresher Refresher
	Hosts     []string
	now       func() time.Time
}

func NewProxy(fetcher portfolio.Fetcher, cache URLCache, refresher Refresher, hosts []string) *Proxy {
	return &Proxy{Fetcher: fetcher, Cache: cache, Refresher: refresher, Hosts: hosts, now: time.Now}
}

// allowed matches u against Hosts. An entry is an exact host name,
// optionally followed by a path prefix that the URL path must start with.
func (p *Proxy) allowed(u *url.URL) bool {
	if u == nil || u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, entry := range p.Hosts {
		h, prefix, _ := strings.Cut(strings.ToLower(entry), "/")
		if host != h {
			continue
		}
		if prefix == "" || strings.HasPrefix(u.Path, "/"+prefix+"/") {
			return true
		}
	}
	return false
}

// CheckRedirect is meant for the http.Client behind the proxy fetcher so
// redirects cannot leave the allowed hosts.
func (p *Proxy) CheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 5 {
		return errors.New("imageproxy: too many redirects")
	}
	if !p.allowed(req.URL) {
		return fmt.Errorf("redirect to %s: %w", req.URL.Host, ErrHostForbidden)
	}
	return nil
}

// Get returns the media behind rawURL. An expired or rejected signature is
// replaced by a fresh one from the record store and the fetch retried once.
func (p *Proxy) Get(ctx context.Context, rawURL string) (*Entry, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, ErrInvalidURL
	}
	if !p.allowed(u) {
		return nil, ErrHostForbidden
	}

	objectPath := notion.ObjectPath(rawURL)
	key := cacheKey(objectPath)
	if e, ok := p.Cache.Get(key); ok {
		return &e, nil
	}

	target := rawURL
	if signatureExpired(u, p.now()) {
		if fresh, err := p.refresh(ctx, objectPath); err == nil {
			target = fresh
		}
	}

	m, err := p.Fetcher.Fetch(ctx, target)
	var status *portfolio.StatusError
	if errors.As(err, &status) && (status.Code == http.StatusForbidden || status.Code == http.StatusBadRequest) {
		fresh, rerr := p.refresh(ctx, objectPath)
		if rerr != nil {
			return nil, fmt.Errorf("refresh signed url: %w", rerr)
		}
		m, err = p.Fetcher.Fetch(ctx, fresh)
	}
	if err != nil {
		return nil, err
	}

	e := Entry{Data: m.Data, ContentType: m.ContentType}
	p.Cache.Set(key, e)
	return &e, nil
}

func (p *Proxy) refresh(ctx context.Context, objectPath string) (string, error) {
	if p.Refresher == nil {
		return "", errors.New("imageproxy: no refresher configured")
	}
	fresh, err := p.Refresher.FreshURL(ctx, objectPath)
	if err != nil {
		return "", err
	}
	if u, err := url.Parse(fresh); err != nil || !p.allowed(u) {
		return "", ErrHostForbidden
	}
	slog.Info("signed media url refreshed", slog.String("object", objectPath))
	return fresh, nil
}

// signatureExpired reads the X-Amz-Date and X-Amz-Expires query parameters
// of a presigned URL. URLs without them never expire.
func signatureExpired(u *url.URL, now time.Time) bool {
	q := u.Query()
	signed, err := time.Parse("20060102T150405Z", q.Get("X-Amz-Date"))
	if err != nil {
		return false
	}
	secs, err := strconv.Atoi(q.Get("X-Amz-Expires"))
	if err != nil {
		return false
	}
	return !now.Before(signed.Add(time.Duration(secs) * time.Second))
}

func cacheKey(objectPath string) string {
	sum := blake3.Sum256([]byte(objectPath))
	return hex.EncodeToString(sum[:])
}
