package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/tidwall/jsonc"
	"github.com/xavierca1/studio-funnel/internal/entity"
)

// Provider is one place the reader can get projects from.
type Provider interface {
	Name() string
	Projects(ctx context.Context) ([]entity.Project, error)
}

type CacheProvider struct{ Cache *Cache }

func (p CacheProvider) Name() string { return "cache" }

func (p CacheProvider) Projects(ctx context.Context) ([]entity.Project, error) {
	return p.Cache.ReadAll()
}

// LiveProvider reads straight from the record store. Media URLs are the
// store's signed URLs.
type LiveProvider struct{ Source entity.ProjectSource }

func (p LiveProvider) Name() string { return "live" }

func (p LiveProvider) Projects(ctx context.Context) ([]entity.Project, error) {
	projects, err := p.Source.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	out := assignSlugs(published(projects))
	for i := range out {
		out[i].DescriptionHTML = markdown(out[i].Description)
	}
	return out, nil
}

// SampleProvider reads a JSON-with-comments file shipped with the service.
type SampleProvider struct{ Path string }

func (p SampleProvider) Name() string { return "sample" }

func (p SampleProvider) Projects(ctx context.Context) ([]entity.Project, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, err
	}
	var projects []entity.Project
	if err := json.Unmarshal(jsonc.ToJSON(data), &projects); err != nil {
		return nil, fmt.Errorf("parse sample projects: %w", err)
	}
	for i := range projects {
		if projects[i].DescriptionHTML == "" {
			projects[i].DescriptionHTML = markdown(projects[i].Description)
		}
	}
	return assignSlugs(projects), nil
}

// Reader serves projects from the first provider that has any.
type Reader struct {
	providers []Provider
}

func NewReader(providers ...Provider) *Reader {
	return &Reader{providers: providers}
}

func (r *Reader) List(ctx context.Context) ([]entity.Project, error) {
	for _, p := range r.providers {
		projects, err := p.Projects(ctx)
		if err != nil {
			slog.Warn("portfolio provider failed", slog.String("provider", p.Name()), slog.String("error", err.Error()))
			continue
		}
		projects = published(projects)
		if len(projects) == 0 {
			continue
		}
		slog.Debug("portfolio served", slog.String("provider", p.Name()), slog.Int("projects", len(projects)))
		sortProjects(projects)
		return projects, nil
	}
	return []entity.Project{}, nil
}

func (r *Reader) Get(ctx context.Context, slug string) (*entity.Project, error) {
	projects, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Slug == slug {
			return &projects[i], nil
		}
	}
	return nil, ErrNotFound
}

// sortProjects puts featured work first, then newest first.
func sortProjects(projects []entity.Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		a, b := projects[i], projects[j]
		if a.Featured != b.Featured {
			return a.Featured
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Slug < b.Slug
	})
}
