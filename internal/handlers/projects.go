package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dconn.dev/portfolio/internal/models"
	"dconn.dev/portfolio/internal/services"
	"dconn.dev/portfolio/internal/templates"
)

// ProjectHandler handles project pages and the read-only project API
type ProjectHandler struct {
	projectService *services.ProjectService
	renderer       templates.Renderer
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(ps *services.ProjectService, renderer templates.Renderer) *ProjectHandler {
	return &ProjectHandler{projectService: ps, renderer: renderer}
}

// Home handles GET /
func (h *ProjectHandler) Home(w http.ResponseWriter, r *http.Request) {
	view, err := h.projectService.Home(r.Context())
	h.render(w, r, view, err)
}

// ProjectsPage handles GET /projects. With fragment=true only the project
// grid is rendered, for in-place swaps.
func (h *ProjectHandler) ProjectsPage(w http.ResponseWriter, r *http.Request) {
	req, err := services.ParseListingRequest(r.URL.Query())
	if err != nil {
		respondPageError(w, r, err)
		return
	}
	view, err := h.projectService.Projects(r.Context(), req)
	h.render(w, r, view, err)
}

// ProjectPage handles GET /project/{slug}
func (h *ProjectHandler) ProjectPage(w http.ResponseWriter, r *http.Request) {
	view, err := h.projectService.ProjectDetail(r.Context(), chi.URLParam(r, "slug"))
	h.render(w, r, view, err)
}

func (h *ProjectHandler) render(w http.ResponseWriter, r *http.Request, view services.View, err error) {
	if err != nil {
		respondPageError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w, view.Template, view.Data); err != nil {
		respondPageError(w, r, err)
	}
}

// projectJSON is the API shape of a project, with tags decoded.
type projectJSON struct {
	models.Project
	Tags []string `json:"tags"`
}

func toJSON(p models.Project) projectJSON {
	return projectJSON{Project: p, Tags: p.ParsedTags()}
}

// ListProjects handles GET /api/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	spec, err := services.ParseFilter(r.URL.Query())
	if err != nil {
		respondAPIError(w, r, err)
		return
	}

	projects, err := h.projectService.List(r.Context(), spec)
	if err != nil {
		respondAPIError(w, r, err)
		return
	}

	out := make([]projectJSON, 0, len(projects))
	for _, p := range projects {
		out = append(out, toJSON(p))
	}
	respondJSON(w, http.StatusOK, out)
}

// GetProject handles GET /api/projects/{slug}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.projectService.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondAPIError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toJSON(*project))
}

// ListCategories handles GET /api/categories
func (h *ProjectHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.projectService.Categories(r.Context())
	if err != nil {
		respondAPIError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, categories)
}
