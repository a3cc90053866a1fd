package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabmerge/tabmerge/core"
	"github.com/tabmerge/tabmerge/core/mock"
)

func TestIndexModeFromString(t *testing.T) {
	r := require.New(t)

	type testCase struct {
		input    string
		expected core.IndexMode
		fails    bool
	}

	testCases := []testCase{
		{input: "", expected: core.IndexModeUnset},
		{input: "none", expected: core.IndexModeNone},
		{input: "LOCAL", expected: core.IndexModeLocal},
		{input: "Sequential", expected: core.IndexModeSequential},
		{input: "bogus", fails: true},
	}

	for _, tc := range testCases {
		mode, err := core.IndexModeFromString(tc.input)
		if tc.fails {
			r.ErrorIs(err, core.ErrInvalidConfig)
			continue
		}
		r.NoError(err)
		r.Equal(tc.expected, mode)
	}
}

func TestConfigValidate(t *testing.T) {
	r := require.New(t)

	registry := mock.NewRegistry(mock.NewHandler(nil))

	cfg := core.NewConfig("")
	r.ErrorIs(cfg.Validate(registry), core.ErrInvalidConfig)

	cfg = core.NewConfig(filepath.Join(t.TempDir(), "does-not-exist"))
	r.ErrorIs(cfg.Validate(registry), core.ErrInvalidConfig)

	file := filepath.Join(t.TempDir(), "plain.txt")
	r.NoError(os.WriteFile(file, []byte("x"), 0o644))
	cfg = core.NewConfig(file)
	r.ErrorIs(cfg.Validate(registry), core.ErrInvalidConfig)

	cfg = core.NewConfig(t.TempDir())
	cfg.FileTypes = []string{"mock", "unknown"}
	r.ErrorIs(cfg.Validate(registry), core.ErrInvalidConfig)

	cfg = core.NewConfig(t.TempDir())
	cfg.FileTypes = []string{".MOCK"}
	cfg.ReadOptions = nil
	cfg.WriteOptions = nil
	r.NoError(cfg.Validate(registry))
	r.NotNil(cfg.ReadOptions)
	r.NotNil(cfg.WriteOptions)
}

func TestConfigWithSchemaMap(t *testing.T) {
	r := require.New(t)

	original := core.NewConfig("input")
	clone := original.WithSchemaMap(core.SchemaMap{"email": {"mail"}})

	r.Nil(original.SchemaMap)
	r.Equal(core.SchemaMap{"email": {"mail"}}, clone.SchemaMap)
	r.Equal(original.InputFolder, clone.InputFolder)

	clone.ReadOptions[core.OptChunkSize] = 5
	r.NotContains(original.ReadOptions, core.OptChunkSize)
}

func TestConfigFromMap(t *testing.T) {
	r := require.New(t)

	cfg, err := core.ConfigFromMap(map[string]any{
		"input_folder":          "in",
		"output_file":           "out.csv",
		"recursive":             true,
		"file_type_filter":      "csv",
		"schema_map":            map[string]any{"email": []any{"mail", "e-mail"}},
		"to_lower":              false,
		"spaces_to_underscores": true,
		"index_mode":            "sequential",
		"index_start":           float64(100),
		"columns":               "id, email,age",
		"force_in_memory":       true,
		"read_options":          map[string]any{core.OptDelimiter: ";"},
		"write_options":         core.Options{core.OptHeader: false},
	})
	r.NoError(err)

	r.Equal("in", cfg.InputFolder)
	r.Equal("out.csv", cfg.OutputFile)
	r.True(cfg.Recursive)
	r.Equal([]string{"csv"}, cfg.FileTypes)
	r.Equal(core.SchemaMap{"email": {"mail", "e-mail"}}, cfg.SchemaMap)
	r.False(cfg.ToLower)
	r.True(cfg.SpacesToUnderscores)
	r.Equal(core.IndexModeSequential, cfg.IndexMode)
	r.Equal(100, cfg.IndexStart)
	r.Equal([]string{"id", "email", "age"}, cfg.Columns)
	r.True(cfg.ForceInMemory)
	r.Equal(";", cfg.ReadOptions.String(core.OptDelimiter, ""))
	r.False(cfg.WriteOptions.Bool(core.OptHeader, true))
}

func TestConfigFromMapFailsFast(t *testing.T) {
	r := require.New(t)

	type testCase struct {
		name string
		raw  map[string]any
	}

	testCases := []testCase{
		{name: "missing input folder", raw: map[string]any{"recursive": true}},
		{name: "unknown key", raw: map[string]any{"input_folder": "in", "chunk": 1}},
		{name: "wrong bool type", raw: map[string]any{"input_folder": "in", "recursive": "yes"}},
		{name: "options not a mapping", raw: map[string]any{"input_folder": "in", "read_options": "delimiter=;"}},
		{name: "invalid index mode", raw: map[string]any{"input_folder": "in", "index_mode": "global"}},
		{name: "non-string column list", raw: map[string]any{"input_folder": "in", "columns": []any{1, 2}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(_ *testing.T) {
			_, err := core.ConfigFromMap(tc.raw)
			r.ErrorIs(err, core.ErrInvalidConfig)
		})
	}
}
