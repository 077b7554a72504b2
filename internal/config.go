package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/inkgraph/internal/comments"
	"github.com/starford/inkgraph/internal/engagement"
	"github.com/starford/inkgraph/internal/postservice"
)

// devHashSecret keys visitor fingerprints when no secret is configured.
// Fingerprints derived with it are only fit for local development.
const devHashSecret = "dev-only-secret"

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Corpus     CorpusConfig      `yaml:"corpus"`
	Database   DatabaseConfig    `yaml:"database"`
	Visitor    VisitorConfig     `yaml:"visitor"`
	Engagement EngagementConfig  `yaml:"engagement"`
	Comments   CommentsConfig    `yaml:"comments"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Corpus.Validate(); err != nil {
		return err
	}
	if err := c.Visitor.Validate(); err != nil {
		return err
	}
	if err := c.Engagement.Validate(); err != nil {
		return err
	}
	return c.Comments.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
	// PublicOrigin, e.g. "https://blog.example.com", pins the origin accepted
	// on mutating requests. Empty means the request's own origin.
	PublicOrigin string `yaml:"public_origin"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CorpusConfig points at the directory of Markdown posts.
type CorpusConfig struct {
	Path string `yaml:"path"`
	// LinkPrefix is prepended to post ids when wiki-links are rendered.
	LinkPrefix string `yaml:"link_prefix"`
}

// Validate validates the corpus configuration.
func (c *CorpusConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// DatabaseConfig holds SQLite database configuration. An empty Path leaves
// the relational store unconfigured: engagement becomes a no-op and comment
// mutations answer 503.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Configured reports whether a database path is set.
func (c *DatabaseConfig) Configured() bool {
	return c.Path != ""
}

// VisitorConfig controls the anonymous visitor cookie and fingerprint key.
type VisitorConfig struct {
	HashSecret   string        `yaml:"hash_secret"`
	CookieName   string        `yaml:"cookie_name"`
	CookieMaxAge time.Duration `yaml:"cookie_max_age"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

// Validate validates the visitor configuration.
func (c *VisitorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CookieName, validation.Required),
		validation.Field(&c.CookieMaxAge, validation.Required, validation.Min(time.Minute)),
	)
}

// Secret returns the configured hash secret and whether the development
// fallback had to be used.
func (c *VisitorConfig) Secret() (string, bool) {
	if c.HashSecret == "" {
		return devHashSecret, true
	}
	return c.HashSecret, false
}

// EngagementConfig holds the view deduplication window.
type EngagementConfig struct {
	ViewWindow time.Duration `yaml:"view_window"`
}

// Validate validates the engagement configuration.
func (c *EngagementConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ViewWindow, validation.Required, validation.Min(time.Minute)),
	)
}

// CommentsConfig holds comment password hashing settings.
type CommentsConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// Validate validates the comments configuration.
func (c *CommentsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BcryptCost, validation.Required, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Corpus: CorpusConfig{
			Path:       "./posts",
			LinkPrefix: postservice.DefaultLinkPrefix,
		},
		Database: DatabaseConfig{
			Path: "./inkgraph.db",
		},
		Visitor: VisitorConfig{
			CookieName:   "visitor_id",
			CookieMaxAge: 365 * 24 * time.Hour,
		},
		Engagement: EngagementConfig{
			ViewWindow: engagement.DefaultViewWindow,
		},
		Comments: CommentsConfig{
			BcryptCost: comments.DefaultCost,
		},
	}
}
