package seed

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dconn.dev/portfolio/internal/catalog"
	"dconn.dev/portfolio/internal/database"
	"dconn.dev/portfolio/internal/models"
)

const validDoc = `
projects:
  - slug: alpha
    title: Alpha
    category: Go
    short_desc: first
    long_desc: first project
    github_url: https://github.com/example/alpha
    featured: true
    tags: [Go, CLI]
    created_at: 2024-02-01T00:00:00Z
  - slug: beta
    title: Beta
    category: Rust
    short_desc: second
    long_desc: second project
    tags: []
    created_at: 2024-01-01T00:00:00Z
`

func openTempDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite:"+filepath.Join(t.TempDir(), "seed.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestParse(t *testing.T) {
	projects, err := Parse([]byte(validDoc))
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, "alpha", projects[0].Slug)
	assert.Equal(t, []string{"Go", "CLI"}, projects[0].Tags)
	assert.True(t, projects[0].Featured)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), projects[0].CreatedAt.UTC())
	assert.Empty(t, projects[1].GitHubURL)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "projects: [\n"},
		{"missing title", `
projects:
  - slug: a
    category: Go
    short_desc: s
    long_desc: l
`},
		{"bad slug", `
projects:
  - slug: Not A Slug
    title: t
    category: Go
    short_desc: s
    long_desc: l
`},
		{"bad url", `
projects:
  - slug: a
    title: t
    category: Go
    short_desc: s
    long_desc: l
    live_url: not a url
`},
		{"empty tag", `
projects:
  - slug: a
    title: t
    category: Go
    short_desc: s
    long_desc: l
    tags: ["Go", ""]
`},
		{"duplicate slug", `
projects:
  - {slug: a, title: t, category: Go, short_desc: s, long_desc: l}
  - {slug: a, title: u, category: Go, short_desc: s, long_desc: l}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	db := openTempDB(t)

	projects, err := Parse([]byte(validDoc))
	require.NoError(t, err)

	n, err := Apply(ctx, db, projects)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	store := catalog.NewStore(db)
	alpha, err := store.FindBySlug(ctx, "alpha")
	require.NoError(t, err)
	require.NotNil(t, alpha)
	assert.Equal(t, "Alpha", alpha.Title)
	assert.Equal(t, []string{"Go", "CLI"}, alpha.ParsedTags())
	assert.Equal(t, "https://github.com/example/alpha", alpha.GitHubURL)
	assert.Empty(t, alpha.LiveURL)
	assert.True(t, alpha.Featured)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), alpha.CreatedAt)

	featured, err := store.ListFeatured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "alpha", featured[0].Slug)
}

func TestApplyUpsertsBySlug(t *testing.T) {
	ctx := context.Background()
	db := openTempDB(t)
	store := catalog.NewStore(db)

	projects, err := Parse([]byte(validDoc))
	require.NoError(t, err)
	_, err = Apply(ctx, db, projects)
	require.NoError(t, err)

	before, err := store.FindBySlug(ctx, "beta")
	require.NoError(t, err)
	require.NotNil(t, before)

	projects[1].Title = "Beta v2"
	projects[1].Featured = true
	projects[1].CreatedAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = Apply(ctx, db, projects[1:])
	require.NoError(t, err)

	after, err := store.FindBySlug(ctx, "beta")
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "Beta v2", after.Title)
	assert.True(t, after.Featured)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	all, err := store.ListAll(ctx, models.FilterSpec{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	db := openTempDB(t)

	_, err := db.ExecContext(ctx, `CREATE TRIGGER reject_boom BEFORE INSERT ON projects
		WHEN NEW.title = 'boom'
		BEGIN SELECT RAISE(ABORT, 'boom rejected'); END`)
	require.NoError(t, err)

	projects, err := Parse([]byte(validDoc))
	require.NoError(t, err)
	projects[1].Title = "boom"

	_, err = Apply(ctx, db, projects)
	require.ErrorContains(t, err, `upsert project "beta"`)

	all, err := catalog.NewStore(db).ListAll(ctx, models.FilterSpec{})
	require.NoError(t, err)
	assert.Empty(t, all, "first row must be rolled back with the failed one")
}

func TestSeedFileInRepo(t *testing.T) {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	path := filepath.Join(filepath.Dir(file), "..", "..", "data", "projects.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("seed file not present")
	}

	projects, err := LoadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, projects)
}
