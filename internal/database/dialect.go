package database

import "strconv"

// Dialect captures the SQL differences between supported stores.
type Dialect struct {
	// Name is the golang-migrate database driver name.
	Name string
	// DriverName is the database/sql driver name.
	DriverName string
	// Numbered placeholders ($1, $2, ...) instead of ?.
	Numbered bool
	// NativeBool stores booleans as a BOOLEAN column; otherwise 0/1 integers.
	NativeBool bool
}

var (
	SQLite   = Dialect{Name: "sqlite", DriverName: "sqlite"}
	Postgres = Dialect{Name: "postgres", DriverName: "pgx", Numbered: true, NativeBool: true}
)

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d.Numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Bool returns the store-native encoding of b.
func (d Dialect) Bool(b bool) any {
	if d.NativeBool {
		return b
	}
	if b {
		return 1
	}
	return 0
}
