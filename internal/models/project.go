package models

import (
	"time"

	"dconn.dev/portfolio/internal/apperr"
)

// Project represents a portfolio project
type Project struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	ShortDesc string    `json:"short_desc"`
	LongDesc  string    `json:"long_desc"`
	GitHubURL string    `json:"github_url,omitempty"`
	LiveURL   string    `json:"live_url,omitempty"`
	Featured  bool      `json:"featured"`
	Tags      string    `json:"-"` // raw JSON array as stored
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParsedTags decodes the stored tag list. A corrupt list yields no tags.
func (p Project) ParsedTags() []string {
	return DecodeTags(p.Tags)
}

// FilterSpec narrows a catalog listing. Nil fields are not applied.
type FilterSpec struct {
	Category *string
	Featured *bool
	Limit    *int
}

// Validate rejects values that must never reach the query builder.
func (f FilterSpec) Validate() error {
	if f.Limit != nil && *f.Limit < 0 {
		return apperr.Validation("limit must be a non-negative integer")
	}
	return nil
}

// ByCategory returns a spec filtering on category only.
func ByCategory(category string) FilterSpec {
	return FilterSpec{Category: &category}
}

// FeaturedOnly returns a spec selecting featured projects.
func FeaturedOnly() FilterSpec {
	featured := true
	return FilterSpec{Featured: &featured}
}
