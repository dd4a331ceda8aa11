package writer

import (
	"strings"

	"github.com/koustreak/datame/internal/errs"
)

// Format names an output backend.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatSQLite   Format = "sqlite"
	FormatPostgres Format = "postgres"
	FormatMySQL    Format = "mysql"
	FormatMongo    Format = "mongo"
)

// Formats lists every supported format in display order.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatYAML, FormatSQLite, FormatPostgres, FormatMySQL, FormatMongo}
}

// FormatNames returns Formats as strings.
func FormatNames() []string {
	fs := Formats()
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = string(f)
	}
	return names
}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", errs.Newf(errs.ErrKindInvalidInput,
		"unknown output format %q (want one of %s)", s, strings.Join(FormatNames(), ", "))
}

func (f Format) String() string { return string(f) }

// SupportsList reports the format's declared list support, known without
// opening anything.
func (f Format) SupportsList() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatMongo:
		return true
	}
	return false
}

// SupportsRecord reports the format's declared record support.
func (f Format) SupportsRecord() bool {
	return f.SupportsList()
}

// Streamed reports whether the format writes bytes to a sink rather than
// into a database.
func (f Format) Streamed() bool {
	switch f {
	case FormatCSV, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// ContentType is the MIME type of a streamed format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/x-ndjson"
	case FormatYAML:
		return "application/yaml"
	}
	return "application/octet-stream"
}
