package portfolio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xavierca1/studio-funnel/internal/entity"
	"github.com/zeebo/blake3"
)

var ErrNotFound = errors.New("portfolio: project not found")

// Cache is a directory holding one {slug}.json document per project.
type Cache struct {
	Dir string
}

func NewCache(dir string) *Cache {
	return &Cache{Dir: dir}
}

func (c *Cache) path(slug string) string {
	return filepath.Join(c.Dir, slug+".json")
}

// Write replaces the document atomically so readers never see a partial file.
func (c *Cache) Write(p entity.Project) error {
	if !entity.ValidSlug(p.Slug) {
		return fmt.Errorf("write project: invalid slug %q", p.Slug)
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	_, err = writeIfChanged(c.path(p.Slug), data)
	return err
}

func (c *Cache) Read(slug string) (*entity.Project, error) {
	if !entity.ValidSlug(slug) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(c.path(slug))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p entity.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("read project %s: %w", slug, err)
	}
	return &p, nil
}

// Slugs lists the cached documents. A missing directory is an empty cache.
func (c *Cache) Slugs() ([]string, error) {
	entries, err := os.ReadDir(c.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var slugs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(slugs)
	return slugs, nil
}

func (c *Cache) Remove(slug string) error {
	err := os.Remove(c.path(slug))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ReadAll returns every readable document. Broken files are skipped.
func (c *Cache) ReadAll() ([]entity.Project, error) {
	slugs, err := c.Slugs()
	if err != nil {
		return nil, err
	}
	projects := make([]entity.Project, 0, len(slugs))
	for _, s := range slugs {
		p, err := c.Read(s)
		if err != nil {
			continue
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

// writeIfChanged skips the write when the file already holds the same
// bytes. It reports whether anything was written.
func writeIfChanged(path string, data []byte) (bool, error) {
	if old, err := os.ReadFile(path); err == nil && blake3.Sum256(old) == blake3.Sum256(data) {
		return false, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return false, err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return false, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return false, err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return false, err
	}
	return true, os.Rename(tmp.Name(), path)
}
