package portfolio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/studio-funnel/internal/entity"
)

const sampleJSONC = `[
  // shown when neither the cache nor the store answers
  {
    "slug": "sample-one",
    "title": "Sample One",
    "description": "*hello*",
    "published": true,
    "tools": ["Figma"],
    "gallery": [],
  },
]`

func TestReader_FallsBackInOrder(t *testing.T) {
	dir := t.TempDir()
	samplePath := filepath.Join(dir, "sample-projects.jsonc")
	require.NoError(t, os.WriteFile(samplePath, []byte(sampleJSONC), 0o644))

	cache := NewCache(filepath.Join(dir, "cache"))
	live := &fakeSource{err: errors.New("no token")}
	r := NewReader(CacheProvider{cache}, LiveProvider{live}, SampleProvider{samplePath})

	projects, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "sample-one", projects[0].Slug)
	assert.Equal(t, "<p><em>hello</em></p>\n", projects[0].DescriptionHTML)

	live.err = nil
	live.projects = []entity.Project{project("from-live")}
	projects, err = r.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-live", projects[0].Slug)

	require.NoError(t, cache.Write(project("from-cache")))
	projects, err = r.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-cache", projects[0].Slug)
}

func TestReader_Get(t *testing.T) {
	cache := NewCache(t.TempDir())
	require.NoError(t, cache.Write(project("a")))
	r := NewReader(CacheProvider{cache})

	p, err := r.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", p.Title)

	_, err = r.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReader_FeaturedFirstThenNewest(t *testing.T) {
	cache := NewCache(t.TempDir())
	old, recent, featured := project("old"), project("recent"), project("featured")
	old.CreatedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	recent.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	featured.CreatedAt = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	featured.Featured = true
	for _, p := range []entity.Project{old, recent, featured} {
		require.NoError(t, cache.Write(p))
	}

	projects, err := NewReader(CacheProvider{cache}).List(context.Background())
	require.NoError(t, err)
	var slugs []string
	for _, p := range projects {
		slugs = append(slugs, p.Slug)
	}
	assert.Equal(t, []string{"featured", "recent", "old"}, slugs)
}

func TestCache_RejectsInvalidSlug(t *testing.T) {
	cache := NewCache(t.TempDir())
	err := cache.Write(entity.Project{Slug: "../escape"})
	assert.Error(t, err)

	_, err = cache.Read("../escape")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".png", extension("https://x/y/hero.PNG?sig=1", ""))
	assert.Equal(t, ".jpg", extension("https://x/y/photo.jpeg", ""))
	assert.Equal(t, ".webp", extension("https://x/y/blob", "image/webp; charset=binary"))
	assert.Equal(t, ".jpg", extension("https://x/y/blob", ""))
}
