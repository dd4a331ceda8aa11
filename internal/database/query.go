package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/schema"
)

// Dialect controls placeholder style, identifier quoting and column types.
type Dialect int

const (
	// DialectPostgres uses $1, $2, … placeholders.
	DialectPostgres Dialect = iota

	// DialectMySQL uses ? placeholders and backtick identifiers.
	DialectMySQL

	// DialectSQLite uses ? placeholders.
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

// Placeholder returns the parameter placeholder for the 1-based index idx.
func (d Dialect) Placeholder(idx int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", idx)
	}
	return "?"
}

// QuoteIdent quotes a SQL identifier. MySQL without ANSI_QUOTES treats
// double quotes as string literals, so it gets backticks.
func (d Dialect) QuoteIdent(name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ColumnType maps a scalar schema kind to a column type.
func (d Dialect) ColumnType(k schema.Kind) (string, bool) {
	switch k {
	case schema.KindInteger:
		if d == DialectSQLite {
			return "INTEGER", true
		}
		return "BIGINT", true
	case schema.KindFloat:
		switch d {
		case DialectMySQL:
			return "DOUBLE", true
		case DialectSQLite:
			return "REAL", true
		}
		return "DOUBLE PRECISION", true
	case schema.KindString:
		return "TEXT", true
	}
	return "", false
}

// CreateTable builds a CREATE TABLE IF NOT EXISTS statement for a flat schema.
// Nested fields are rejected with ErrKindInvalidInput.
func CreateTable(d Dialect, table string, s *schema.RecordSchema) (string, error) {
	if table == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "table name is empty")
	}
	if s.Len() == 0 {
		return "", errs.Newf(errs.ErrKindInvalidInput, "table %q has no columns", table)
	}

	cols := make([]string, 0, s.Len())
	for _, f := range s.Fields() {
		typ, ok := d.ColumnType(f.Type().Kind())
		if !ok {
			return "", errs.Newf(errs.ErrKindInvalidInput,
				"column %q of type %s cannot be stored in a %s table", f.Name(), f.Type(), d)
		}
		cols = append(cols, d.QuoteIdent(f.Name())+" "+typ)
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(d.QuoteIdent(table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(")")
	return sb.String(), nil
}

// Insert builds a parameterized single-row INSERT statement.
// Values are never interpolated into the SQL string; they are passed as args.
func Insert(d Dialect, table string, columns []string) string {
	quoted := make([]string, len(columns))
	holders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
		holders[i] = d.Placeholder(i + 1)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.QuoteIdent(table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES (")
	sb.WriteString(strings.Join(holders, ", "))
	sb.WriteString(")")
	return sb.String()
}

// TableExistsQuery returns a query selecting 1 when the table named by the
// single parameter exists.
func (d Dialect) TableExistsQuery() string {
	switch d {
	case DialectMySQL:
		return `
		SELECT 1
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type   = 'BASE TABLE'
		  AND table_name   = ?`
	case DialectSQLite:
		return `SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`
	default:
		return `
		SELECT 1
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_type   = 'BASE TABLE'
		  AND table_name   = $1`
	}
}
