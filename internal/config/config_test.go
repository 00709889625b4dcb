package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STUDIO_CONFIG", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "/media/portfolio", cfg.Portfolio.MediaPrefix)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "studio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
studio_name: North Studio
databases:
  site_build: db-site
  portfolio: db-portfolio
mail:
  host: smtp.example.com
  operator: hello@example.com
`), 0o644))

	t.Setenv("STUDIO_CONFIG", path)
	t.Setenv("PORT", "")
	t.Setenv("NOTION_DB_PORTFOLIO", "db-env")
	t.Setenv("MAIL_PORT", "2525")
	t.Setenv("MAIL_USER", "bot@example.com")
	t.Setenv("MAIL_FROM", "")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "North Studio", cfg.StudioName)
	assert.Equal(t, "db-site", cfg.Databases.SiteBuild)
	assert.Equal(t, "db-env", cfg.Databases.Portfolio)
	assert.Equal(t, 2525, cfg.Mail.Port)
	assert.Equal(t, "bot@example.com", cfg.Mail.From)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_BadMailPort(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STUDIO_CONFIG", "")
	t.Setenv("MAIL_PORT", "smtp")

	_, err := Load()
	assert.Error(t, err)
}
