package portfolio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xavierca1/studio-funnel/internal/entity"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/singleflight"
)

// MediaUpdater rewrites the media columns of a project record.
type MediaUpdater interface {
	UpdateProjectMedia(ctx context.Context, id string, hero string, gallery []string) error
}

type ItemError struct {
	Slug  string `json:"slug"`
	Error string `json:"error"`
}

type SyncResult struct {
	Saved   []string    `json:"saved"`
	Removed []string    `json:"removed"`
	Errors  []ItemError `json:"errors"`
}

type MigrateResult struct {
	Migrated []string    `json:"migrated"`
	Errors   []ItemError `json:"errors"`
}

type Synchronizer struct {
	Source      entity.ProjectSource
	Fetcher     Fetcher
	Cache       *Cache
	MediaDir    string
	MediaPrefix string
	PublicBase  string
	Updater     MediaUpdater

	group singleflight.Group
}

func NewSynchronizer(source entity.ProjectSource, fetcher Fetcher, cache *Cache, mediaDir, mediaPrefix string) *Synchronizer {
	return &Synchronizer{
		Source:      source,
		Fetcher:     fetcher,
		Cache:       cache,
		MediaDir:    mediaDir,
		MediaPrefix: strings.TrimRight(mediaPrefix, "/"),
	}
}

// Sync mirrors the published projects into the cache. Concurrent calls
// share a single run and its result; the run outlives a caller that
// goes away.
func (s *Synchronizer) Sync(ctx context.Context) (*SyncResult, error) {
	v, err, shared := s.group.Do("sync", func() (interface{}, error) {
		return s.sync(context.WithoutCancel(ctx))
	})
	if shared {
		slog.Info("portfolio sync joined a running sync")
	}
	if err != nil {
		return nil, err
	}
	return v.(*SyncResult), nil
}

func (s *Synchronizer) sync(ctx context.Context) (*SyncResult, error) {
	projects, err := s.Source.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("portfolio sync aborted: %w", err)
	}

	res := &SyncResult{Saved: []string{}, Removed: []string{}, Errors: []ItemError{}}
	keep := make(map[string]bool)

	for _, p := range assignSlugs(published(projects)) {
		keep[p.Slug] = true

		hero, gallery, errs := s.localize(ctx, p)
		p.Hero, p.Gallery = hero, gallery
		for _, e := range errs {
			res.Errors = append(res.Errors, ItemError{Slug: p.Slug, Error: e.Error()})
		}
		p.DescriptionHTML = markdown(p.Description)

		if err := s.Cache.Write(p); err != nil {
			slog.Error("portfolio cache write failed", slog.String("slug", p.Slug), slog.String("error", err.Error()))
			res.Errors = append(res.Errors, ItemError{Slug: p.Slug, Error: err.Error()})
			continue
		}
		res.Saved = append(res.Saved, p.Slug)
	}

	cached, err := s.Cache.Slugs()
	if err != nil {
		return res, fmt.Errorf("portfolio sync: list cache: %w", err)
	}
	for _, slug := range cached {
		if keep[slug] {
			continue
		}
		if err := s.Cache.Remove(slug); err != nil {
			res.Errors = append(res.Errors, ItemError{Slug: slug, Error: err.Error()})
			continue
		}
		res.Removed = append(res.Removed, slug)
	}

	slog.Info("portfolio sync finished",
		slog.Int("saved", len(res.Saved)),
		slog.Int("removed", len(res.Removed)),
		slog.Int("errors", len(res.Errors)))
	return res, nil
}

// localize downloads every remote media reference. A failed download keeps
// the remote URL for that one field.
func (s *Synchronizer) localize(ctx context.Context, p entity.Project) (string, []string, []error) {
	var errs []error
	fetch := func(ref, name string) string {
		if !entity.IsRemoteMedia(ref) {
			return ref
		}
		file, err := s.download(ctx, ref, name)
		if err != nil {
			slog.Warn("portfolio media download failed",
				slog.String("slug", p.Slug),
				slog.String("file", name),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return ref
		}
		return s.MediaPrefix + "/" + file
	}

	hero := p.Hero
	if hero != "" {
		hero = fetch(hero, p.Slug+"-hero")
	}
	gallery := make([]string, 0, len(p.Gallery))
	for i, ref := range p.Gallery {
		gallery = append(gallery, fetch(ref, p.Slug+"-"+strconv.Itoa(i+1)))
	}
	return hero, gallery, errs
}

// download stores the media under name plus an extension and returns the
// file name.
func (s *Synchronizer) download(ctx context.Context, url, name string) (string, error) {
	m, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.MediaDir, 0o755); err != nil {
		return "", err
	}
	file := name + extension(url, m.ContentType)
	if _, err := writeIfChanged(filepath.Join(s.MediaDir, file), m.Data); err != nil {
		return "", err
	}
	return file, nil
}

// Migrate copies every remote media file to local storage and points the
// record at the public copy, so the store stops serving expiring links.
func (s *Synchronizer) Migrate(ctx context.Context) (*MigrateResult, error) {
	if s.Updater == nil || s.PublicBase == "" {
		return nil, fmt.Errorf("portfolio migrate: public base url or updater not configured")
	}
	projects, err := s.Source.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("portfolio migrate aborted: %w", err)
	}

	base := strings.TrimRight(s.PublicBase, "/")
	res := &MigrateResult{Migrated: []string{}, Errors: []ItemError{}}
	for _, p := range assignSlugs(projects) {
		if !s.needsMigration(p) {
			continue
		}
		hero, gallery, errs := s.localize(ctx, p)
		if len(errs) > 0 {
			for _, e := range errs {
				res.Errors = append(res.Errors, ItemError{Slug: p.Slug, Error: e.Error()})
			}
			continue
		}

		if hero != "" {
			hero = base + hero
		}
		for i := range gallery {
			gallery[i] = base + gallery[i]
		}
		if err := s.Updater.UpdateProjectMedia(ctx, p.ExternalID, hero, gallery); err != nil {
			res.Errors = append(res.Errors, ItemError{Slug: p.Slug, Error: err.Error()})
			continue
		}
		res.Migrated = append(res.Migrated, p.Slug)
	}
	return res, nil
}

func (s *Synchronizer) needsMigration(p entity.Project) bool {
	base := strings.TrimRight(s.PublicBase, "/")
	for _, ref := range append([]string{p.Hero}, p.Gallery...) {
		if entity.IsRemoteMedia(ref) && !strings.HasPrefix(ref, base+"/") {
			return true
		}
	}
	return false
}

func published(projects []entity.Project) []entity.Project {
	out := make([]entity.Project, 0, len(projects))
	for _, p := range projects {
		if p.Published {
			out = append(out, p)
		}
	}
	return out
}

// assignSlugs makes slugs unique in list order. A repeat gets a suffix from
// its own creation time, so reruns produce the same slugs.
// assignSlugs gives colliding slugs a date suffix. The oldest project
// keeps the bare slug whatever order the source lists them in.
func assignSlugs(projects []entity.Project) []entity.Project {
	ordered := append([]entity.Project(nil), projects...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ExternalID < ordered[j].ExternalID
	})

	seen := make(map[string]bool, len(ordered))
	out := make([]entity.Project, 0, len(ordered))
	for _, p := range ordered {
		if !entity.ValidSlug(p.Slug) {
			p.Slug = entity.SlugWithFallback(p.Slug, p.CreatedAt)
		}
		slug := p.Slug
		if seen[slug] {
			slug = entity.SlugSuffix(p.Slug, p.CreatedAt)
			for n := 2; seen[slug]; n++ {
				slug = entity.SlugSuffix(p.Slug, p.CreatedAt) + "-" + strconv.Itoa(n)
			}
		}
		seen[slug] = true
		p.Slug = slug
		out = append(out, p)
	}
	return out
}

func markdown(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return ""
	}
	return buf.String()
}
