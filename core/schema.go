package core

import "fmt"

// SourceFileColumn tags each output row with the file it came from.
const SourceFileColumn = "source_file"

// Schema is the ordered column-to-type map every output row conforms to.
type Schema struct {
	columns []string
	types   map[string]ColumnType
}

func NewSchema() *Schema {
	return &Schema{types: make(map[string]ColumnType)}
}

// Merge records an observed type for a column, promoting the stored
// type when needed. Unseen columns accumulate in encounter order.
func (s *Schema) Merge(column string, t ColumnType) {
	existing, ok := s.types[column]
	if !ok {
		s.columns = append(s.columns, column)
		if t == "" {
			t = TypeObject
		}
		s.types[column] = t
		return
	}
	s.types[column] = MergeTypes(existing, t)
}

// Columns returns the column names in encounter order.
func (s *Schema) Columns() []string {
	return append([]string{}, s.columns...)
}

// Type returns the unified type of a column, or the empty tag when the
// column is not part of the schema.
func (s *Schema) Type(column string) ColumnType {
	return s.types[column]
}

func (s *Schema) Has(column string) bool {
	_, ok := s.types[column]
	return ok
}

func (s *Schema) Len() int {
	return len(s.columns)
}

// SchemaDetector builds the unified schema of a run by sampling files.
type SchemaDetector struct {
	registry HandlerRegistry
	log      Logger
}

func NewSchemaDetector(registry HandlerRegistry, logger Logger) *SchemaDetector {
	return &SchemaDetector{registry: registry, log: logger}
}

// Detect returns the run's schema. With explicit columns configured no
// file is read; otherwise every eligible file contributes a sample.
func (d *SchemaDetector) Detect(cfg *Config) (*Schema, error) {
	if len(cfg.Columns) > 0 {
		return d.schemaFromColumns(cfg.Columns), nil
	}
	return d.schemaFromFiles(cfg)
}

// schemaFromColumns types every explicit column as object, the most
// permissive tag. The schema map holds alias spellings, not types, so
// there is nothing stricter to derive.
func (d *SchemaDetector) schemaFromColumns(columns []string) *Schema {
	schema := NewSchema()
	for _, col := range columns {
		schema.Merge(col, TypeObject)
	}
	schema.Merge(SourceFileColumn, TypeObject)
	return schema
}

func (d *SchemaDetector) schemaFromFiles(cfg *Config) (*Schema, error) {
	d.log.Infof("detecting schema in %q", cfg.InputFolder)

	files, err := DiscoverFiles(cfg.InputFolder, cfg.Recursive, cfg.fileTypes())
	if err != nil {
		return nil, fmt.Errorf("core.DiscoverFiles: %w", err)
	}

	schema := NewSchema()
	sampled := 0

	for _, path := range files {
		sample, err := d.sampleFile(path, cfg)
		if err != nil {
			d.log.Warnf("could not sample %q: %s", path, err)
			continue
		}
		if sample == nil || len(sample.Header) == 0 {
			continue
		}

		NormalizeBatch(sample, cfg.SchemaMap, cfg.ToLower, cfg.SpacesToUnderscores)
		for _, col := range sample.Header {
			schema.Merge(col, inferColumnType(sample, col))
		}
		sampled++
	}

	if schema.Len() == 0 {
		return nil, fmt.Errorf("%w: no usable files in %q", ErrNoSchemaDetected, cfg.InputFolder)
	}

	schema.Merge(SourceFileColumn, TypeObject)
	d.log.Infof("schema detection complete: %d columns from %d files", schema.Len(), sampled)
	return schema, nil
}

// sampleFile reads at most the handler's sample-row count from a file.
// A zero sample count reads the whole file.
func (d *SchemaDetector) sampleFile(path string, cfg *Config) (*Batch, error) {
	handler, err := d.registry.Lookup(ExtensionOf(path))
	if err != nil {
		return nil, err
	}

	stream, err := handler.Read(path, cfg.ReadOptions)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	limit := handler.SampleRows()
	sample := &Batch{}

	for stream.HasNext() {
		batch, err := stream.Next()
		if err != nil {
			return nil, err
		}
		if batch == nil {
			break
		}
		if len(sample.Header) == 0 {
			sample.Header = batch.Header
			sample.Rows = batch.Rows
		} else {
			merged := Concat([]*Batch{sample, batch})
			sample = merged
		}
		if limit > 0 && sample.Len() >= limit {
			sample.Rows = sample.Rows[:limit]
			break
		}
	}

	return sample, nil
}

// inferColumnType merges the value types observed in a sampled column.
func inferColumnType(sample *Batch, column string) ColumnType {
	var merged ColumnType
	for _, value := range sample.Column(column) {
		merged = MergeTypes(merged, DetectValueType(value))
	}
	if merged == "" {
		return TypeObject
	}
	return merged
}
