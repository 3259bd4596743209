package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"dconn.dev/portfolio/internal/apperr"
	"dconn.dev/portfolio/internal/models"
	"dconn.dev/portfolio/internal/templates"
)

// Catalog is the read side of the project store.
type Catalog interface {
	ListAll(ctx context.Context, spec models.FilterSpec) ([]models.Project, error)
	ListFeatured(ctx context.Context) ([]models.Project, error)
	FindBySlug(ctx context.Context, slug string) (*models.Project, error)
	DistinctCategories(ctx context.Context) ([]string, error)
}

// HomeView drives the home template.
type HomeView struct {
	FeaturedProjects []models.Project
}

// ProjectsView drives the full projects page.
type ProjectsView struct {
	Projects         []models.Project
	Categories       []string
	SelectedCategory string
}

// ProjectFragmentView drives the partial project grid.
type ProjectFragmentView struct {
	Projects []models.Project
}

// ProjectDetailView drives the single project page.
type ProjectDetailView struct {
	Project models.Project
}

// View is a template name and the view model to render it with.
type View struct {
	Template string
	Data     any
}

// ListingRequest is the parsed query string of the projects listing.
type ListingRequest struct {
	Filter   models.FilterSpec
	Fragment bool
}

// ProjectService assembles page view models from the catalog
type ProjectService struct {
	catalog Catalog
}

// NewProjectService creates a new ProjectService
func NewProjectService(catalog Catalog) *ProjectService {
	return &ProjectService{catalog: catalog}
}

// Home returns the homepage view: featured projects only.
func (s *ProjectService) Home(ctx context.Context) (View, error) {
	featured, err := s.catalog.ListFeatured(ctx)
	if err != nil {
		return View{}, err
	}
	return View{Template: templates.Home, Data: HomeView{FeaturedProjects: featured}}, nil
}

// Projects returns the listing view. Fragment requests get only the project
// grid; full requests also get the category list and selection state.
func (s *ProjectService) Projects(ctx context.Context, req ListingRequest) (View, error) {
	projects, err := s.catalog.ListAll(ctx, req.Filter)
	if err != nil {
		return View{}, err
	}
	if req.Fragment {
		return View{Template: templates.ProjectFragment, Data: ProjectFragmentView{Projects: projects}}, nil
	}

	categories, err := s.catalog.DistinctCategories(ctx)
	if err != nil {
		return View{}, err
	}
	selected := ""
	if req.Filter.Category != nil {
		selected = *req.Filter.Category
	}
	return View{
		Template: templates.Projects,
		Data: ProjectsView{
			Projects:         projects,
			Categories:       categories,
			SelectedCategory: selected,
		},
	}, nil
}

// ProjectDetail returns the detail view for slug, or a NotFound error naming it.
func (s *ProjectService) ProjectDetail(ctx context.Context, slug string) (View, error) {
	project, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return View{}, err
	}
	return View{Template: templates.ProjectDetail, Data: ProjectDetailView{Project: *project}}, nil
}

// GetBySlug returns a specific project by slug
func (s *ProjectService) GetBySlug(ctx context.Context, slug string) (*models.Project, error) {
	project, err := s.catalog.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound(fmt.Sprintf("Project '%s' not found", slug))
	}
	return project, nil
}

// List returns the projects matching spec.
func (s *ProjectService) List(ctx context.Context, spec models.FilterSpec) ([]models.Project, error) {
	return s.catalog.ListAll(ctx, spec)
}

// Categories returns every category, ascending.
func (s *ProjectService) Categories(ctx context.Context) ([]string, error) {
	return s.catalog.DistinctCategories(ctx)
}

// ParseFilter reads category, featured and limit from a query string. Blank
// values are treated as absent; malformed ones are a validation error. A
// non-blank category is matched exactly, surrounding spaces included.
func ParseFilter(values url.Values) (models.FilterSpec, error) {
	var spec models.FilterSpec

	if category := values.Get("category"); strings.TrimSpace(category) != "" {
		spec.Category = &category
	}

	featured, err := parseBool(values, "featured")
	if err != nil {
		return models.FilterSpec{}, err
	}
	spec.Featured = featured

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return models.FilterSpec{}, apperr.Validation("limit must be a non-negative integer")
		}
		spec.Limit = &limit
	}

	if err := spec.Validate(); err != nil {
		return models.FilterSpec{}, err
	}
	return spec, nil
}

// ParseListingRequest reads the projects listing query string.
func ParseListingRequest(values url.Values) (ListingRequest, error) {
	spec, err := ParseFilter(values)
	if err != nil {
		return ListingRequest{}, err
	}
	fragment, err := parseBool(values, "fragment")
	if err != nil {
		return ListingRequest{}, err
	}
	return ListingRequest{Filter: spec, Fragment: fragment != nil && *fragment}, nil
}

// parseBool accepts only the literals true and false.
func parseBool(values url.Values, name string) (*bool, error) {
	var b bool
	switch raw := strings.TrimSpace(values.Get(name)); raw {
	case "":
		return nil, nil
	case "true":
		b = true
	case "false":
		b = false
	default:
		return nil, apperr.Validation(name + " must be true or false")
	}
	return &b, nil
}
