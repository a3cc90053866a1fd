package core

import "errors"

var (
	// ErrInvalidConfig marks configuration failures raised before any
	// file is touched.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedFormat is returned when no handler exists for a
	// file extension. Fatal for the output format, recoverable per
	// input file.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUnsupportedStructure is returned when a nested-record file has
	// a shape that cannot be laid out as rows and columns.
	ErrUnsupportedStructure = errors.New("unsupported structure")

	// ErrNoTabularData is returned when a keyed object holds no array
	// values to treat as sheets.
	ErrNoTabularData = errors.New("no tabular data")

	// ErrNoSchemaDetected means schema detection found zero columns.
	ErrNoSchemaDetected = errors.New("no schema detected")

	// ErrMissingIndexColumn means finalize was called on a batch that
	// never went through the index manager. Always an integration bug.
	ErrMissingIndexColumn = errors.New("missing temporary index column")
)
