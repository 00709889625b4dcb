package entity

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Palette struct {
	Primary    string `json:"primary,omitempty"`
	Secondary  string `json:"secondary,omitempty"`
	Accent     string `json:"accent,omitempty"`
	Background string `json:"background,omitempty"`
}

// Project is one portfolio case study. Hero and Gallery entries are either
// remote URLs or local paths written by the synchronizer.
type Project struct {
	ExternalID       string    `json:"external_id,omitempty"`
	Slug             string    `json:"slug"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	DescriptionHTML  string    `json:"description_html,omitempty"`
	ShortDescription string    `json:"short_description,omitempty"`
	Year             int       `json:"year,omitempty"`
	Tools            []string  `json:"tools"`
	Hero             string    `json:"hero,omitempty"`
	Gallery          []string  `json:"gallery"`
	Colors           Palette   `json:"colors"`
	Published        bool      `json:"published"`
	Featured         bool      `json:"featured"`
	CreatedAt        time.Time `json:"created_at"`
}

type ProjectSource interface {
	ListProjects(ctx context.Context) ([]Project, error)
}

var (
	slugSpaces  = regexp.MustCompile(`[\s_]+`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]+`)
	slugHyphens = regexp.MustCompile(`-{2,}`)
	slugValid   = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// GenerateSlug derives a URL-safe slug from a title. An empty result falls
// back to a placeholder based on the current time.
func GenerateSlug(title string) string {
	return SlugWithFallback(title, time.Now())
}

func SlugWithFallback(title string, at time.Time) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fmt.Sprintf("project-%d", at.UnixMilli())
	}
	return s
}

// SlugSuffix disambiguates a colliding slug with a base-36 timestamp.
func SlugSuffix(slug string, at time.Time) string {
	return slug + "-" + strconv.FormatInt(at.Unix(), 36)
}

func ValidSlug(s string) bool {
	return slugValid.MatchString(s)
}

func IsRemoteMedia(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}
