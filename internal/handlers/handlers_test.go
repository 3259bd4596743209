package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dconn.dev/portfolio/internal/apperr"
	"dconn.dev/portfolio/internal/catalog"
	"dconn.dev/portfolio/internal/config"
	"dconn.dev/portfolio/internal/database"
	"dconn.dev/portfolio/internal/middleware"
	"dconn.dev/portfolio/internal/seed"
	"dconn.dev/portfolio/internal/services"
	"dconn.dev/portfolio/internal/templates"
)

var fixtures = []seed.Project{
	{
		Slug:      "a",
		Title:     "Project A",
		Category:  "Rust",
		ShortDesc: "a short",
		LongDesc:  "a long",
		GitHubURL: "https://github.com/example/a",
		Featured:  true,
		Tags:      []string{"Rust", "CLI"},
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	},
	{
		Slug:      "b",
		Title:     "Project B",
		Category:  "Web",
		ShortDesc: "b short",
		LongDesc:  "b long",
		Featured:  false,
		CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	},
}

type server struct {
	handler http.Handler
	db      *database.DB
}

func newServer(t *testing.T, limiter *middleware.RateLimiter) server {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, "sqlite:"+filepath.Join(t.TempDir(), "handlers.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	_, err = seed.Apply(ctx, db, fixtures)
	require.NoError(t, err)

	renderer, err := templates.New()
	require.NoError(t, err)

	staticDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(staticDir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "css", "site.css"), []byte("body{}"), 0o644))

	store := catalog.NewStore(db)
	h := SetupRoutes(&config.Config{StaticDir: staticDir}, Deps{
		Projects: services.NewProjectService(store),
		Renderer: renderer,
		Store:    store,
		Limiter:  limiter,
	})
	return server{handler: h, db: db}
}

func (s server) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHome(t *testing.T) {
	s := newServer(t, nil)

	w := s.get(t, "/")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `href="/project/a"`)
	assert.NotContains(t, w.Body.String(), `href="/project/b"`)
}

func TestProjectsPage(t *testing.T) {
	s := newServer(t, nil)

	t.Run("full page", func(t *testing.T) {
		w := s.get(t, "/projects")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "<html")
		assert.Contains(t, body, "category-filter")
		assert.Contains(t, body, `href="/project/a"`)
		assert.Contains(t, body, `href="/project/b"`)
	})

	t.Run("category filter", func(t *testing.T) {
		w := s.get(t, "/projects?category=Web")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `href="/project/b"`)
		assert.NotContains(t, body, `href="/project/a"`)
		assert.Contains(t, body, `class="active">Web</a>`)
	})

	t.Run("fragment", func(t *testing.T) {
		w := s.get(t, "/projects?fragment=true&category=Rust")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.NotContains(t, body, "<html")
		assert.NotContains(t, body, "category-filter")
		assert.Contains(t, body, `href="/project/a"`)
		assert.NotContains(t, body, `href="/project/b"`)
	})

	t.Run("limit", func(t *testing.T) {
		w := s.get(t, "/projects?fragment=true&limit=1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `href="/project/a"`)
		assert.NotContains(t, w.Body.String(), `href="/project/b"`)
	})

	t.Run("malformed fragment", func(t *testing.T) {
		w := s.get(t, "/projects?fragment=maybe")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "fragment must be true or false", w.Body.String())
	})

	t.Run("negative limit", func(t *testing.T) {
		w := s.get(t, "/projects?limit=-1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProjectPage(t *testing.T) {
	s := newServer(t, nil)

	w := s.get(t, "/project/a")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Project A</h1>")
	assert.Contains(t, w.Body.String(), "<li>CLI</li>")

	w = s.get(t, "/project/unknown-slug")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Project 'unknown-slug' not found", w.Body.String())
}

func TestStoreFaultIsGeneric(t *testing.T) {
	s := newServer(t, nil)
	require.NoError(t, s.db.Close())

	for _, target := range []string{"/", "/projects", "/project/a"} {
		w := s.get(t, target)
		assert.Equal(t, http.StatusInternalServerError, w.Code, target)
		assert.Equal(t, "Internal server error", w.Body.String(), target)
	}

	w := s.get(t, "/api/projects")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

type failingRenderer struct{}

func (failingRenderer) Render(_ io.Writer, name string, _ any) error {
	return apperr.TemplateFault(name, errors.New("missing field"))
}

func TestTemplateFaultIsGeneric(t *testing.T) {
	s := newServer(t, nil)
	store := catalog.NewStore(s.db)
	h := SetupRoutes(&config.Config{StaticDir: t.TempDir()}, Deps{
		Projects: services.NewProjectService(store),
		Renderer: failingRenderer{},
		Store:    store,
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/project/a", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Internal server error", w.Body.String())
}

func TestAPIProjects(t *testing.T) {
	s := newServer(t, nil)

	w := s.get(t, "/api/projects")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var projects []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &projects))
	require.Len(t, projects, 2)
	assert.Equal(t, "a", projects[0]["slug"])
	assert.Equal(t, []any{"Rust", "CLI"}, projects[0]["tags"])
	assert.Equal(t, []any{}, projects[1]["tags"])
	assert.NotContains(t, projects[1], "github_url")

	w = s.get(t, "/api/projects?featured=false")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "b", projects[0]["slug"])

	w = s.get(t, "/api/projects?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"limit must be a non-negative integer"}`, w.Body.String())

	w = s.get(t, "/api/projects?featured=sometimes")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIProject(t *testing.T) {
	s := newServer(t, nil)

	w := s.get(t, "/api/projects/a")
	require.Equal(t, http.StatusOK, w.Code)
	var project map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))
	assert.Equal(t, "Project A", project["title"])
	assert.Equal(t, true, project["featured"])

	w = s.get(t, "/api/projects/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Project 'missing' not found"}`, w.Body.String())
}

func TestAPICategories(t *testing.T) {
	s := newServer(t, nil)

	w := s.get(t, "/api/categories")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Rust","Web"]`, w.Body.String())
}

func TestProbes(t *testing.T) {
	s := newServer(t, nil)

	w := s.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = s.get(t, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = s.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	require.NoError(t, s.db.Close())
	w = s.get(t, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStaticAndNotFound(t *testing.T) {
	s := newServer(t, nil)

	w := s.get(t, "/static/css/site.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body{}", w.Body.String())

	w = s.get(t, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>404</h1>")
}

func TestRateLimited(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RatePerSecond:   1,
		Burst:           2,
		CleanupInterval: time.Minute,
		MaxAge:          time.Minute,
	})
	defer rl.Stop()
	s := newServer(t, rl)

	assert.Equal(t, http.StatusOK, s.get(t, "/healthz").Code)
	assert.Equal(t, http.StatusOK, s.get(t, "/healthz").Code)
	assert.Equal(t, http.StatusTooManyRequests, s.get(t, "/healthz").Code)
}
