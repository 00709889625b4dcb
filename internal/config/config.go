package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xavierca1/studio-funnel/internal/infra/integration/notion"
	"gopkg.in/yaml.v3"
)

type Mail struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"`
	From     string `yaml:"from"`
	Operator string `yaml:"operator"`
}

type Portfolio struct {
	CacheDir    string   `yaml:"cache_dir"`
	MediaDir    string   `yaml:"media_dir"`
	MediaPrefix string   `yaml:"media_prefix"`
	SampleFile  string   `yaml:"sample_file"`
	AdminToken  string   `yaml:"-"`
	// Exact host names the image proxy may fetch from, each optionally
	// followed by a path prefix.
	MediaHosts []string `yaml:"media_hosts"`
}

type Config struct {
	Port           string           `yaml:"port"`
	PublicBaseURL  string           `yaml:"public_base_url"`
	AllowedOrigins []string         `yaml:"allowed_origins"`
	StudioName     string           `yaml:"studio_name"`
	NotionToken    string           `yaml:"-"`
	NotionBaseURL  string           `yaml:"notion_base_url"`
	Databases      notion.Databases `yaml:"databases"`
	Mail           Mail             `yaml:"mail"`
	DatabaseURL    string           `yaml:"-"`
	AMQPURL        string           `yaml:"-"`
	Portfolio      Portfolio        `yaml:"portfolio"`
}

func defaults() Config {
	return Config{
		Port:           "8080",
		AllowedOrigins: []string{"*"},
		StudioName:     "Studio",
		NotionBaseURL:  notion.DefaultBaseURL,
		Mail:           Mail{Port: 587},
		Portfolio: Portfolio{
			CacheDir:    "data/portfolio",
			MediaDir:    "public/media/portfolio",
			MediaPrefix: "/media/portfolio",
			SampleFile:  "data/sample-projects.jsonc",
			MediaHosts:  []string{"prod-files-secure.s3.us-west-2.amazonaws.com", "s3.us-west-2.amazonaws.com/secure.notion-static.com"},
		},
	}
}

// Load reads .env when present, then the YAML file named by STUDIO_CONFIG,
// then the environment. Later sources win. Secrets only come from the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("STUDIO_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	str(&cfg.Port, "PORT")
	str(&cfg.PublicBaseURL, "PUBLIC_BASE_URL")
	list(&cfg.AllowedOrigins, "ALLOWED_ORIGINS")
	str(&cfg.StudioName, "STUDIO_NAME")
	str(&cfg.NotionToken, "NOTION_TOKEN")
	str(&cfg.NotionBaseURL, "NOTION_BASE_URL")
	str(&cfg.Databases.SiteBuild, "NOTION_DB_SITE_BUILD")
	str(&cfg.Databases.GraphicDesign, "NOTION_DB_GRAPHIC_DESIGN")
	str(&cfg.Databases.PhotoVideo, "NOTION_DB_PHOTO_VIDEO")
	str(&cfg.Databases.Contact, "NOTION_DB_CONTACT")
	str(&cfg.Databases.Calculator, "NOTION_DB_CALCULATOR")
	str(&cfg.Databases.Portfolio, "NOTION_DB_PORTFOLIO")
	str(&cfg.Mail.Host, "MAIL_HOST")
	str(&cfg.Mail.User, "MAIL_USER")
	str(&cfg.Mail.Password, "MAIL_PASS")
	str(&cfg.Mail.From, "MAIL_FROM")
	str(&cfg.Mail.Operator, "MAIL_OPERATOR")
	str(&cfg.DatabaseURL, "DATABASE_URL")
	str(&cfg.AMQPURL, "AMQP_URL")
	str(&cfg.Portfolio.CacheDir, "PORTFOLIO_CACHE_DIR")
	str(&cfg.Portfolio.MediaDir, "PORTFOLIO_MEDIA_DIR")
	str(&cfg.Portfolio.MediaPrefix, "PORTFOLIO_MEDIA_PREFIX")
	str(&cfg.Portfolio.SampleFile, "PORTFOLIO_SAMPLE_FILE")
	str(&cfg.Portfolio.AdminToken, "PORTFOLIO_ADMIN_TOKEN")
	list(&cfg.Portfolio.MediaHosts, "PORTFOLIO_MEDIA_HOSTS")

	if v := os.Getenv("MAIL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("MAIL_PORT: %w", err)
		}
		cfg.Mail.Port = port
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.User
	}
	return &cfg, nil
}

func str(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func list(dst *[]string, key string) {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
