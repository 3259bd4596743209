// Package seed loads projects from a YAML file into the store. It is the
// administrative write path; the web app itself never writes.
package seed

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"dconn.dev/portfolio/internal/database"
	"dconn.dev/portfolio/internal/models"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
}

// Project is one entry of the seed file.
type Project struct {
	Slug      string    `yaml:"slug" validate:"required,max=100,slug"`
	Title     string    `yaml:"title" validate:"required,max=200"`
	Category  string    `yaml:"category" validate:"required,max=100"`
	ShortDesc string    `yaml:"short_desc" validate:"required"`
	LongDesc  string    `yaml:"long_desc" validate:"required"`
	GitHubURL string    `yaml:"github_url" validate:"omitempty,url"`
	LiveURL   string    `yaml:"live_url" validate:"omitempty,url"`
	Featured  bool      `yaml:"featured"`
	Tags      []string  `yaml:"tags" validate:"dive,required"`
	CreatedAt time.Time `yaml:"created_at"`
}

// File is the top level of a seed document.
type File struct {
	Projects []Project `yaml:"projects"`
}

// LoadFile reads and validates a seed file.
func LoadFile(path string) ([]Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a seed document. Slugs must be unique within
// the document.
func Parse(data []byte) ([]Project, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed YAML: %w", err)
	}

	seen := make(map[string]bool, len(file.Projects))
	for i, p := range file.Projects {
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("project %d (%q): %w", i, p.Slug, err)
		}
		if seen[p.Slug] {
			return nil, fmt.Errorf("project %d: duplicate slug %q", i, p.Slug)
		}
		seen[p.Slug] = true
	}
	return file.Projects, nil
}

// Apply upserts projects by slug in a single transaction and returns how many
// were written. Existing rows keep their id and created_at.
func Apply(ctx context.Context, db *database.DB, projects []Project) (int, error) {
	now := time.Now().UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertQuery(db.Dialect))
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range projects {
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		_, err := stmt.ExecContext(ctx,
			p.Slug,
			p.Title,
			p.Category,
			p.ShortDesc,
			p.LongDesc,
			nullable(p.GitHubURL),
			nullable(p.LiveURL),
			db.Dialect.Bool(p.Featured),
			models.EncodeTags(p.Tags),
			createdAt.UnixMilli(),
			now.UnixMilli(),
		)
		if err != nil {
			return 0, fmt.Errorf("upsert project %q: %w", p.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed transaction: %w", err)
	}
	return len(projects), nil
}

var upsertColumns = []string{
	"slug", "title", "category", "short_desc", "long_desc", "github_url",
	"live_url", "featured", "tags", "created_at", "updated_at",
}

func upsertQuery(d database.Dialect) string {
	placeholders := make([]string, len(upsertColumns))
	var updates []string
	for i, col := range upsertColumns {
		placeholders[i] = d.Placeholder(i + 1)
		if col != "slug" && col != "created_at" {
			updates = append(updates, col+" = excluded."+col)
		}
	}
	return "INSERT INTO projects (" + strings.Join(upsertColumns, ", ") + ")" +
		" VALUES (" + strings.Join(placeholders, ", ") + ")" +
		" ON CONFLICT (slug) DO UPDATE SET " + strings.Join(updates, ", ")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
