package notion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/studio-funnel/internal/entity"
)

// Databases holds the collection id per record kind.
type Databases struct {
	SiteBuild     string `yaml:"site_build"`
	GraphicDesign string `yaml:"graphic_design"`
	PhotoVideo    string `yaml:"photo_video"`
	Contact       string `yaml:"contact"`
	Calculator    string `yaml:"calculator"`
	Portfolio     string `yaml:"portfolio"`
}

func (d Databases) forCategory(c entity.FormCategory) string {
	switch c {
	case entity.FormSiteBuild:
		return d.SiteBuild
	case entity.FormGraphicDesign:
		return d.GraphicDesign
	case entity.FormPhotoVideo:
		return d.PhotoVideo
	}
	return ""
}

// Store adapts the record store to the lead, contact, calculator and
// project repositories.
type Store struct {
	client *Client
	dbs    Databases

	mu       sync.Mutex
	media    map[string]string
	listedAt time.Time
	now      func() time.Time
}

const (
	// Signed file URLs live for an hour; indexed ones are reused for less.
	mediaTTL = 45 * time.Minute
	// Unknown object paths trigger at most one listing per interval.
	relistInterval = time.Minute
)

func NewStore(client *Client, dbs Databases) *Store {
	return &Store{client: client, dbs: dbs, now: time.Now}
}

func (s *Store) Configured() bool {
	return s != nil && s.client.Configured()
}

func (s *Store) create(ctx context.Context, databaseID string, p properties) (string, error) {
	if !s.Configured() || databaseID == "" {
		return "", ErrNotConfigured
	}
	pg, err := s.client.createPage(ctx, databaseID, toWire(p))
	if err != nil {
		return "", err
	}
	return pg.ID, nil
}

func (s *Store) CreateLead(ctx context.Context, lead *entity.Lead) (string, error) {
	id, err := s.create(ctx, s.dbs.forCategory(lead.Category), leadProperties(lead))
	if err != nil {
		return "", fmt.Errorf("create %s brief: %w", lead.Category, err)
	}
	slog.Info("brief stored", slog.String("id", id), slog.String("form_type", string(lead.Category)))
	return id, nil
}

func (s *Store) UpdateLead(ctx context.Context, id string, patch entity.LeadPatch) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if err := s.client.updatePage(ctx, id, toWire(patchProperties(patch))); err != nil {
		return fmt.Errorf("update brief: %w", err)
	}
	return nil
}

func (s *Store) FindLead(ctx context.Context, id string) (*entity.Lead, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	pg, err := s.client.getPage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find brief: %w", err)
	}
	return pageToLead(pg), nil
}

func (s *Store) CreateContact(ctx context.Context, msg *entity.ContactMessage) (string, error) {
	id, err := s.create(ctx, s.dbs.Contact, contactProperties(msg))
	if err != nil {
		return "", fmt.Errorf("create contact: %w", err)
	}
	return id, nil
}

func (s *Store) CreateCalculatorLead(ctx context.Context, lead *entity.CalculatorLead) (string, error) {
	id, err := s.create(ctx, s.dbs.Calculator, calculatorProperties(lead))
	if err != nil {
		return "", fmt.Errorf("create calculator lead: %w", err)
	}
	return id, nil
}

// ListProjects reads every page of the portfolio collection. Media URLs are
// returned as the store issued them, signed and short-lived.
func (s *Store) ListProjects(ctx context.Context) ([]entity.Project, error) {
	if !s.Configured() || s.dbs.Portfolio == "" {
		return nil, ErrNotConfigured
	}
	pages, err := s.client.queryDatabase(ctx, s.dbs.Portfolio)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]entity.Project, 0, len(pages))
	for i := range pages {
		projects = append(projects, pageToProject(&pages[i]))
	}
	s.indexMedia(projects)
	return projects, nil
}

func (s *Store) indexMedia(projects []entity.Project) {
	media := make(map[string]string)
	for _, p := range projects {
		for _, ref := range append([]string{p.Hero}, p.Gallery...) {
			if ref != "" {
				media[strings.ToLower(ObjectPath(ref))] = ref
			}
		}
	}
	s.mu.Lock()
	s.media = media
	s.listedAt = s.now()
	s.mu.Unlock()
}

// lookupMedia reports the indexed URL for key, and whether the index is
// old enough to be rebuilt when key is missing.
func (s *Store) lookupMedia(key string) (string, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	age := s.now().Sub(s.listedAt)
	if ref, ok := s.media[key]; ok && age < mediaTTL {
		return ref, true, false
	}
	return "", false, s.listedAt.IsZero() || age >= relistInterval
}

// UpdateProjectMedia points the page's hero and gallery columns at
// permanent URLs. Columns the page does not have are skipped.
func (s *Store) UpdateProjectMedia(ctx context.Context, id string, hero string, gallery []string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	pg, err := s.client.getPage(ctx, id)
	if err != nil {
		return fmt.Errorf("update project media: %w", err)
	}

	heroCol, galleryCol := mediaColumns(pg)
	p := properties{}
	if heroCol != "" && hero != "" {
		p[heroCol] = ExternalFiles(hero)
	}
	if galleryCol != "" && len(gallery) > 0 {
		p[galleryCol] = ExternalFiles(gallery...)
	}
	if len(p) == 0 {
		return nil
	}
	if err := s.client.updatePage(ctx, id, toWire(p)); err != nil {
		return fmt.Errorf("update project media: %w", err)
	}
	return nil
}

// FreshURL returns a newly signed URL for the media object at objectPath,
// as produced by ObjectPath. Only objects listed in the portfolio
// collection resolve; the collection is listed again at most once per
// relistInterval.
func (s *Store) FreshURL(ctx context.Context, objectPath string) (string, error) {
	key := strings.ToLower(objectPath)
	ref, ok, due := s.lookupMedia(key)
	if ok {
		return ref, nil
	}
	if due {
		if _, err := s.ListProjects(ctx); err != nil {
			return "", err
		}
		if ref, ok, _ = s.lookupMedia(key); ok {
			return ref, nil
		}
	}
	return "", fmt.Errorf("fresh url for %s: %w", objectPath, entity.ErrNotFound)
}
