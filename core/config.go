package core

import (
	"fmt"
	"os"
	"strings"
)

// IndexMode controls the synthetic row index of the output.
type IndexMode int

const (
	// IndexModeUnset leaves caller-supplied index write options untouched.
	IndexModeUnset IndexMode = iota
	// IndexModeNone emits no synthetic index column.
	IndexModeNone
	// IndexModeLocal restarts the counter at the start value for every file.
	IndexModeLocal
	// IndexModeSequential keeps one monotonically increasing counter for
	// the whole run.
	IndexModeSequential
)

func (m IndexMode) String() string {
	switch m {
	case IndexModeNone:
		return "none"
	case IndexModeLocal:
		return "local"
	case IndexModeSequential:
		return "sequential"
	default:
		return ""
	}
}

// IndexModeFromString parses a case-insensitive mode name. The empty
// string maps to IndexModeUnset.
func IndexModeFromString(value string) (IndexMode, error) {
	switch strings.ToLower(value) {
	case "":
		return IndexModeUnset, nil
	case "none":
		return IndexModeNone, nil
	case "local":
		return IndexModeLocal, nil
	case "sequential":
		return IndexModeSequential, nil
	default:
		return IndexModeUnset, fmt.Errorf("%w: invalid index mode %q (valid: none, local, sequential)", ErrInvalidConfig, value)
	}
}

// SchemaMap maps a standard column name to its acceptable alias spellings.
type SchemaMap map[string][]string

// DefaultFileTypes are the extensions an unfiltered run consumes.
var DefaultFileTypes = []string{"csv", "xlsx", "json"}

// Config holds every option of a single processing run. It is built
// once per run and treated as read-only afterwards, except for the
// default read/write options the processor merges in.
type Config struct {
	// InputFolder must exist at run time.
	InputFolder string

	// OutputFile is the destination path. Empty means console output.
	OutputFile string

	Recursive bool
	// FileTypes filters eligible extensions. Nil means DefaultFileTypes.
	FileTypes []string

	SchemaMap           SchemaMap
	ToLower             bool
	SpacesToUnderscores bool

	IndexMode  IndexMode
	IndexStart int

	// Columns, when set, forces the output schema to exactly this
	// ordered column list.
	Columns []string

	ForceInMemory bool

	ReadOptions  Options
	WriteOptions Options
}

// NewConfig returns a config with the default normalization rules.
func NewConfig(inputFolder string) *Config {
	return &Config{
		InputFolder:         inputFolder,
		ToLower:             true,
		SpacesToUnderscores: true,
		ReadOptions:         Options{},
		WriteOptions:        Options{},
	}
}

// WithSchemaMap returns a copy of the config with the schema map replaced.
func (c *Config) WithSchemaMap(schemaMap SchemaMap) *Config {
	clone := *c
	clone.SchemaMap = schemaMap
	clone.ReadOptions = Options{}.Merge(c.ReadOptions)
	clone.WriteOptions = Options{}.Merge(c.WriteOptions)
	return &clone
}

// fileTypes returns the normalized extension filter.
func (c *Config) fileTypes() []string {
	if len(c.FileTypes) == 0 {
		return append([]string{}, DefaultFileTypes...)
	}
	normalized := make([]string, 0, len(c.FileTypes))
	for _, ext := range c.FileTypes {
		normalized = append(normalized, strings.ToLower(strings.TrimPrefix(ext, ".")))
	}
	return normalized
}

// Validate checks the config against the registry before any file is
// touched. Every failure wraps ErrInvalidConfig.
func (c *Config) Validate(registry HandlerRegistry) error {
	if c.InputFolder == "" {
		return fmt.Errorf("%w: input folder is required", ErrInvalidConfig)
	}
	info, err := os.Stat(c.InputFolder)
	if err != nil {
		return fmt.Errorf("%w: input folder %q: %s", ErrInvalidConfig, c.InputFolder, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: input folder %q is not a directory", ErrInvalidConfig, c.InputFolder)
	}

	for _, ext := range c.fileTypes() {
		if _, err := registry.Lookup(ext); err != nil {
			return fmt.Errorf("%w: unsupported file type filter %q (supported: %s)",
				ErrInvalidConfig, ext, strings.Join(registry.Extensions(), ", "))
		}
	}

	if c.ReadOptions == nil {
		c.ReadOptions = Options{}
	}
	if c.WriteOptions == nil {
		c.WriteOptions = Options{}
	}
	return nil
}

// ConfigFromMap builds a Config from loosely typed key/value pairs, the
// shape boundary callers (CLI, GUI) hand over. String shorthands are
// normalized: a single extension becomes a one-element filter and a
// comma-separated column list becomes a slice. Option values that are
// not mappings fail fast.
func ConfigFromMap(raw map[string]any) (*Config, error) {
	cfg := NewConfig("")

	for key, value := range raw {
		var err error
		switch key {
		case "input_folder":
			cfg.InputFolder, err = stringValue(key, value)
		case "output_file":
			cfg.OutputFile, err = stringValue(key, value)
		case "recursive":
			cfg.Recursive, err = boolValue(key, value)
		case "file_type_filter":
			cfg.FileTypes, err = stringListValue(key, value)
		case "schema_map":
			cfg.SchemaMap, err = schemaMapValue(key, value)
		case "to_lower":
			cfg.ToLower, err = boolValue(key, value)
		case "spaces_to_underscores":
			cfg.SpacesToUnderscores, err = boolValue(key, value)
		case "index_mode":
			var s string
			if s, err = stringValue(key, value); err == nil {
				cfg.IndexMode, err = IndexModeFromString(s)
			}
		case "index_start":
			cfg.IndexStart, err = intValue(key, value)
		case "columns":
			cfg.Columns, err = stringListValue(key, value)
		case "force_in_memory":
			cfg.ForceInMemory, err = boolValue(key, value)
		case "read_options":
			cfg.ReadOptions, err = optionsValue(key, value)
		case "write_options":
			cfg.WriteOptions, err = optionsValue(key, value)
		default:
			err = fmt.Errorf("%w: unknown config key %q", ErrInvalidConfig, key)
		}
		if err != nil {
			return nil, err
		}
	}

	if cfg.InputFolder == "" {
		return nil, fmt.Errorf("%w: input folder is required", ErrInvalidConfig)
	}
	return cfg, nil
}

func stringValue(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string, got %T", ErrInvalidConfig, key, value)
	}
	return s, nil
}

func boolValue(key string, value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q must be a bool, got %T", ErrInvalidConfig, key, value)
	}
	return b, nil
}

func intValue(key string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: %q must be an integer, got %T", ErrInvalidConfig, key, value)
	}
}

// stringListValue accepts a slice or the comma-list string shorthand.
func stringListValue(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		parts := strings.Split(v, ",")
		list := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				list = append(list, trimmed)
			}
		}
		return list, nil
	case []string:
		return v, nil
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %q must contain strings, got %T", ErrInvalidConfig, key, item)
			}
			list = append(list, s)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("%w: %q must be a string or list of strings, got %T", ErrInvalidConfig, key, value)
	}
}

func optionsValue(key string, value any) (Options, error) {
	switch v := value.(type) {
	case nil:
		return Options{}, nil
	case Options:
		return v, nil
	case map[string]any:
		return Options(v), nil
	default:
		return nil, fmt.Errorf("%w: %q must be a mapping, got %T", ErrInvalidConfig, key, value)
	}
}

func schemaMapValue(key string, value any) (SchemaMap, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case SchemaMap:
		return v, nil
	case map[string][]string:
		return SchemaMap(v), nil
	case map[string]any:
		m := make(SchemaMap, len(v))
		for name, aliases := range v {
			list, err := stringListValue(key, aliases)
			if err != nil {
				return nil, err
			}
			m[name] = list
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q must map names to alias lists, got %T", ErrInvalidConfig, key, value)
	}
}
