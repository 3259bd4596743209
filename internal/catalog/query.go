package catalog

import (
	"strconv"
	"strings"

	"dconn.dev/portfolio/internal/database"
	"dconn.dev/portfolio/internal/models"
)

const projectColumns = `id, slug, title, category, short_desc, long_desc,
       github_url, live_url, featured, tags, created_at, updated_at`

// orderClause is shared by every listing so ListFeatured and
// ListAll({Featured: true}) agree on order, ties included.
const orderClause = " ORDER BY created_at DESC, id DESC"

// Query is built SQL text with its positional arguments.
type Query struct {
	SQL  string
	Args []any
}

// predicate is one WHERE fragment and the value bound to its placeholder.
type predicate struct {
	column string
	value  any
}

// Builder turns a FilterSpec into a parameterized listing query.
type Builder struct {
	dialect database.Dialect
}

// NewBuilder creates a Builder emitting placeholders for dialect.
func NewBuilder(dialect database.Dialect) Builder {
	return Builder{dialect: dialect}
}

// Build composes the listing query for spec. Values are always bound; only
// the validated limit is written into the SQL text.
func (b Builder) Build(spec models.FilterSpec) (Query, error) {
	if err := spec.Validate(); err != nil {
		return Query{}, err
	}

	var preds []predicate
	if spec.Category != nil {
		preds = append(preds, predicate{column: "category", value: *spec.Category})
	}
	if spec.Featured != nil {
		preds = append(preds, predicate{column: "featured", value: b.dialect.Bool(*spec.Featured)})
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(projectColumns)
	sb.WriteString("\n  FROM projects\n WHERE 1=1")

	args := make([]any, 0, len(preds))
	for i, p := range preds {
		sb.WriteString(" AND ")
		sb.WriteString(p.column)
		sb.WriteString(" = ")
		sb.WriteString(b.dialect.Placeholder(i + 1))
		args = append(args, p.value)
	}

	sb.WriteString(orderClause)

	if spec.Limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(*spec.Limit))
	}

	return Query{SQL: sb.String(), Args: args}, nil
}

func featuredQuery() string {
	return "SELECT " + projectColumns + "\n  FROM projects\n WHERE featured = TRUE" + orderClause
}

func slugQuery(dialect database.Dialect) string {
	return "SELECT " + projectColumns + "\n  FROM projects\n WHERE slug = " + dialect.Placeholder(1)
}

const categoriesQuery = "SELECT DISTINCT category FROM projects ORDER BY category"
