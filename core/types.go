package core

import (
	"strconv"
	"strings"
	"time"
)

type (
	// Row and Header are attributes of a Batch
	Row    []any
	Header []string

	// BatchStream is a lazy sequence of batches read from a single file
	BatchStream interface {
		Next() (*Batch, error)
		HasNext() bool
		Close()
	}
)

// ColumnType is the unified type tag of a schema column.
type ColumnType string

const (
	TypeObject   ColumnType = "object"
	TypeFloat    ColumnType = "float"
	TypeInteger  ColumnType = "integer"
	TypeBoolean  ColumnType = "boolean"
	TypeDatetime ColumnType = "datetime"
)

// typeRank orders types from most to least permissive.
// Unrecognized tags collapse to the most permissive rank.
func typeRank(t ColumnType) int {
	switch t {
	case TypeObject:
		return 0
	case TypeFloat:
		return 1
	case TypeInteger:
		return 2
	case TypeBoolean:
		return 3
	case TypeDatetime:
		return 4
	default:
		return 0
	}
}

// MergeTypes unifies two observed column types, keeping the most
// permissive (lower ranked) one. Ties preserve the existing tag.
func MergeTypes(existing, next ColumnType) ColumnType {
	if existing == "" {
		return next
	}
	if next == "" {
		return existing
	}
	if typeRank(next) < typeRank(existing) {
		return next
	}
	return existing
}

// datetimeLayouts are tried in order when classifying string values.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DetectValueType classifies a single cell value into a ColumnType.
// Nil values carry no type information and yield the empty tag.
func DetectValueType(value any) ColumnType {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		return TypeBoolean
	case int, int32, int64:
		return TypeInteger
	case float32:
		return TypeFloat
	case float64:
		// json numbers always decode as float64
		if v == float64(int64(v)) {
			return TypeInteger
		}
		return TypeFloat
	case time.Time:
		return TypeDatetime
	case string:
		return detectStringType(v)
	default:
		return TypeObject
	}
}

func detectStringType(s string) ColumnType {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return TypeInteger
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return TypeFloat
	}
	if s == "true" || s == "false" || s == "True" || s == "False" {
		return TypeBoolean
	}
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return TypeDatetime
		}
	}
	return TypeObject
}

// Options are passthrough read/write settings for format handlers.
// Handlers drop the keys they don't recognize via Filter, so a single
// shared mapping can serve every handler in a run.
type Options map[string]any

// Well-known option keys.
const (
	OptAppend    = "append"
	OptHeader    = "header"
	OptIndex     = "index"
	OptSheet     = "sheet"
	OptTable     = "table"
	OptDelimiter = "delimiter"
	OptChunkSize = "chunk_size"
)

// Filter returns a copy of the options reduced to the allowed keys.
func (o Options) Filter(allowed ...string) Options {
	filtered := make(Options, len(allowed))
	for _, key := range allowed {
		if v, ok := o[key]; ok {
			filtered[key] = v
		}
	}
	return filtered
}

// Merge returns a copy with override values taking precedence.
func (o Options) Merge(override Options) Options {
	merged := make(Options, len(o)+len(override))
	for k, v := range o {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

func (o Options) Bool(key string, fallback bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return fallback
}

func (o Options) Int(key string, fallback int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func (o Options) String(key, fallback string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return fallback
}

type (
	// Handler reads and writes a single on-disk tabular format.
	Handler interface {
		// Extension returns the id used for dispatch (lowercase, no dot).
		Extension() string
		// Streamable reports whether the format supports incremental
		// append writes.
		Streamable() bool
		// SampleRows is the number of rows schema detection reads from
		// a file of this format. Zero means the whole file.
		SampleRows() int
		Read(path string, opts Options) (BatchStream, error)
		Write(batch *Batch, path string, opts Options) error
	}

	// HandlerRegistry resolves file extensions to handlers.
	HandlerRegistry interface {
		Lookup(extension string) (Handler, error)
		Extensions() []string
	}
)
