package portfolio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/studio-funnel/internal/entity"
)

type fakeSource struct {
	mu       sync.Mutex
	projects []entity.Project
	err      error
	calls    int32
	block    chan struct{}
}

func (s *fakeSource) ListProjects(ctx context.Context) ([]entity.Project, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.block != nil {
		<-s.block
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Project(nil), s.projects...), s.err
}

type fakeFetcher struct {
	fail map[string]bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*Media, error) {
	if f.fail[url] {
		return nil, errors.New("status 403")
	}
	return &Media{Data: []byte("img:" + url), ContentType: "image/png"}, nil
}

type fakeUpdater struct {
	calls map[string][]string
}

func (u *fakeUpdater) UpdateProjectMedia(ctx context.Context, id, hero string, gallery []string) error {
	u.calls[id] = append([]string{hero}, gallery...)
	return nil
}

func project(slug string) entity.Project {
	return entity.Project{
		ExternalID: "id-" + slug,
		Slug:       slug,
		Title:      slug,
		Hero:       "https://files.example.com/" + slug + "/hero.png?sig=1",
		Gallery:    []string{"https://files.example.com/" + slug + "/a.jpg?sig=1"},
		Published:  true,
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newSync(t *testing.T, src *fakeSource, f Fetcher) (*Synchronizer, string, string) {
	t.Helper()
	root := t.TempDir()
	cacheDir := filepath.Join(root, "cache")
	mediaDir := filepath.Join(root, "media")
	return NewSynchronizer(src, f, NewCache(cacheDir), mediaDir, "/media/portfolio/"), cacheDir, mediaDir
}

func TestSynchronizer_Sync_WritesProjectsAndMedia(t *testing.T) {
	src := &fakeSource{projects: []entity.Project{project("capital-3")}}
	s, cacheDir, mediaDir := newSync(t, src, &fakeFetcher{})

	res, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"capital-3"}, res.Saved)
	assert.Empty(t, res.Removed)
	assert.Empty(t, res.Errors)

	assert.FileExists(t, filepath.Join(cacheDir, "capital-3.json"))
	assert.FileExists(t, filepath.Join(mediaDir, "capital-3-hero.png"))
	assert.FileExists(t, filepath.Join(mediaDir, "capital-3-1.jpg"))

	p, err := s.Cache.Read("capital-3")
	require.NoError(t, err)
	assert.Equal(t, "/media/portfolio/capital-3-hero.png", p.Hero)
	assert.Equal(t, []string{"/media/portfolio/capital-3-1.jpg"}, p.Gallery)
}

func TestSynchronizer_Sync_IsIdempotent(t *testing.T) {
	src := &fakeSource{projects: []entity.Project{project("a"), project("b")}}
	s, cacheDir, _ := newSync(t, src, &fakeFetcher{})

	_, err := s.Sync(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(cacheDir, "a.json"))
	require.NoError(t, err)

	res, err := s.Sync(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(cacheDir, "a.json"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.ElementsMatch(t, []string{"a", "b"}, res.Saved)
	assert.Empty(t, res.Removed)
}

func TestSynchronizer_Sync_EvictsStaleEntries(t *testing.T) {
	src := &fakeSource{projects: []entity.Project{project("a"), project("b")}}
	s, cacheDir, _ := newSync(t, src, &fakeFetcher{})
	_, err := s.Sync(context.Background())
	require.NoError(t, err)

	src.projects = []entity.Project{project("a")}
	res, err := s.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, res.Removed)
	assert.NoFileExists(t, filepath.Join(cacheDir, "b.json"))
	assert.FileExists(t, filepath.Join(cacheDir, "a.json"))
}

func TestSynchronizer_Sync_UnpublishedIsEvicted(t *testing.T) {
	src := &fakeSource{projects: []entity.Project{project("a")}}
	s, _, _ := newSync(t, src, &fakeFetcher{})
	_, err := s.Sync(context.Background())
	require.NoError(t, err)

	hidden := project("a")
	hidden.Published = false
	src.projects = []entity.Project{hidden}
	res, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Removed)
}

func TestSynchronizer_Sync_FetchFailureAbortsRun(t *testing.T) {
	src := &fakeSource{projects: []entity.Project{project("a")}}
	s, cacheDir, _ := newSync(t, src, &fakeFetcher{})
	_, err := s.Sync(context.Background())
	require.NoError(t, err)

	src.err = errors.New("store unavailable")
	src.projects = nil
	_, err = s.Sync(context.Background())
	require.Error(t, err)

	assert.FileExists(t, filepath.Join(cacheDir, "a.json"))
}

func TestSynchronizer_Sync_ImageFailureKeepsRemoteURL(t *testing.T) {
	p := project("a")
	src := &fakeSource{projects: []entity.Project{p}}
	s, _, _ := newSync(t, src, &fakeFetcher{fail: map[string]bool{p.Gallery[0]: true}})

	res, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Saved)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "a", res.Errors[0].Slug)

	cached, err := s.Cache.Read("a")
	require.NoError(t, err)
	assert.Equal(t, "/media/portfolio/a-hero.png", cached.Hero)
	assert.Equal(t, p.Gallery, cached.Gallery)
}

func TestSynchronizer_Sync_DuplicateSlugsGetSuffix(t *testing.T) {
	a, b := project("same"), project("same")
	b.ExternalID = "other"
	b.CreatedAt = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{projects: []entity.Project{a, b}}
	s, _, _ := newSync(t, src, &fakeFetcher{})

	res, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"same", entity.SlugSuffix("same", b.CreatedAt)}, res.Saved)
}

func TestSynchronizer_Sync_OldestProjectKeepsBareSlug(t *testing.T) {
	older, newer := project("same"), project("same")
	newer.ExternalID = "newer"
	newer.CreatedAt = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{projects: []entity.Project{newer, older}}
	s, cacheDir, _ := newSync(t, src, &fakeFetcher{})

	res, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"same", entity.SlugSuffix("same", newer.CreatedAt)}, res.Saved)

	got, err := NewCache(cacheDir).Read("same")
	require.NoError(t, err)
	assert.Equal(t, older.ExternalID, got.ExternalID)

	// Listing order flips; the slugs stay put.
	src.projects = []entity.Project{older, newer}
	res, err = s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"same", entity.SlugSuffix("same", newer.CreatedAt)}, res.Saved)
}

func TestSynchronizer_Sync_ConcurrentCallsShareOneRun(t *testing.T) {
	src := &fakeSource{projects: []entity.Project{project("a")}, block: make(chan struct{})}
	s, _, _ := newSync(t, src, &fakeFetcher{})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Sync(context.Background())
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(src.block)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))
}

func TestSynchronizer_Sync_RunSurvivesCancelledCaller(t *testing.T) {
	src := &fakeSource{projects: []entity.Project{project("a")}, block: make(chan struct{})}
	s, _, _ := newSync(t, src, &fakeFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := s.Sync(ctx)
		first <- err
	}()
	time.Sleep(20 * time.Millisecond)

	second := make(chan *SyncResult, 1)
	go func() {
		res, err := s.Sync(context.Background())
		assert.NoError(t, err)
		second <- res
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	close(src.block)

	assert.NoError(t, <-first)
	res := <-second
	require.NotNil(t, res)
	assert.Equal(t, []string{"a"}, res.Saved)
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))
}

func TestSynchronizer_Migrate(t *testing.T) {
	done := project("done")
	done.Hero = "https://studio.example.com/media/portfolio/done-hero.png"
	done.Gallery = nil
	src := &fakeSource{projects: []entity.Project{project("a"), done}}
	up := &fakeUpdater{calls: map[string][]string{}}
	s, _, _ := newSync(t, src, &fakeFetcher{})
	s.PublicBase = "https://studio.example.com/"
	s.Updater = up

	res, err := s.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Migrated)
	assert.Equal(t, []string{
		"https://studio.example.com/media/portfolio/a-hero.png",
		"https://studio.example.com/media/portfolio/a-1.jpg",
	}, up.calls["id-a"])
	assert.NotContains(t, up.calls, "id-done")
}

func TestMarkdown(t *testing.T) {
	assert.Equal(t, "<p><strong>bold</strong></p>\n", markdown("**bold**"))
	assert.Empty(t, markdown("  "))
}
