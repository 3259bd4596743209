// Package catalog reads portfolio projects from the store: the filter query
// builder and the read paths the pages are built from.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"dconn.dev/portfolio/internal/apperr"
	"dconn.dev/portfolio/internal/database"
	"dconn.dev/portfolio/internal/models"
	"dconn.dev/portfolio/internal/telemetry"
)

var tracer = telemetry.Tracer("dconn.dev/portfolio/internal/catalog")

// Store executes catalog queries. It holds no per-request state; the pool in
// db is the only shared resource.
type Store struct {
	db      *database.DB
	builder Builder
}

// NewStore creates a Store over db.
func NewStore(db *database.DB) *Store {
	return &Store{db: db, builder: NewBuilder(db.Dialect)}
}

// ListAll returns the projects matching spec, newest first.
func (s *Store) ListAll(ctx context.Context, spec models.FilterSpec) ([]models.Project, error) {
	q, err := s.builder.Build(spec)
	if err != nil {
		return nil, err
	}
	var projects []models.Project
	err = s.observe(ctx, "list_all", func(ctx context.Context) error {
		var err error
		projects, err = s.queryProjects(ctx, q.SQL, q.Args...)
		return err
	})
	if err != nil {
		return nil, apperr.StoreFault("list projects", err)
	}
	return projects, nil
}

// ListFeatured returns the featured projects for the homepage, newest first.
func (s *Store) ListFeatured(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := s.observe(ctx, "list_featured", func(ctx context.Context) error {
		var err error
		projects, err = s.queryProjects(ctx, featuredQuery())
		return err
	})
	if err != nil {
		return nil, apperr.StoreFault("list featured projects", err)
	}
	return projects, nil
}

// FindBySlug returns the project with slug, or nil when there is none.
func (s *Store) FindBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project *models.Project
	err := s.observe(ctx, "find_by_slug", func(ctx context.Context) error {
		p, err := scanProject(s.db.QueryRowContext(ctx, slugQuery(s.db.Dialect), slug))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		project = &p
		return nil
	})
	if err != nil {
		return nil, apperr.StoreFault("find project by slug", err)
	}
	return project, nil
}

// DistinctCategories returns every category in the store, ascending.
func (s *Store) DistinctCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := s.observe(ctx, "distinct_categories", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, categoriesQuery)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var category string
			if err := rows.Scan(&category); err != nil {
				return err
			}
			categories = append(categories, category)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperr.StoreFault("list categories", err)
	}
	return categories, nil
}

// Ping checks that the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (models.Project, error) {
	var (
		p         models.Project
		githubURL sql.NullString
		liveURL   sql.NullString
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Title,
		&p.Category,
		&p.ShortDesc,
		&p.LongDesc,
		&githubURL,
		&liveURL,
		&p.Featured,
		&p.Tags,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return models.Project{}, err
	}
	p.GitHubURL = githubURL.String
	p.LiveURL = liveURL.String
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	p.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return p, nil
}

// observe runs fn inside a span and records its latency and failure.
func (s *Store) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "catalog."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("db.system", s.db.Dialect.Name))

	start := time.Now()
	err := fn(ctx)
	telemetry.CatalogQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.CatalogQueryErrors.WithLabelValues(operation).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
