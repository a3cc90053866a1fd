package handlers

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/tabmerge/tabmerge/core"
	"github.com/tabmerge/tabmerge/core/builders"
)

var _ core.Handler = (*JSONHandler)(nil)

// JSONHandler reads and writes JSON files. Two document shapes are
// tabular: a top-level array of objects, and a top-level object whose
// array values are treated as pseudo-sheets and merged the same way
// workbook sheets are. Non-array values of a keyed document are
// skipped.
type JSONHandler struct{}

func NewJSON() *JSONHandler {
	return &JSONHandler{}
}

func (h *JSONHandler) Extension() string {
	return "json"
}

func (h *JSONHandler) Streamable() bool {
	return false
}

// SampleRows is zero: JSON documents are parsed whole, so schema
// detection sees every row anyway.
func (h *JSONHandler) SampleRows() int {
	return 0
}

func (h *JSONHandler) Read(path string, _ core.Options) (core.BatchStream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("handlers.JSONHandler: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("handlers.JSONHandler: %w", err)
	}

	switch v := doc.(type) {
	case []any:
		batch, err := objectsBatch(v)
		if err != nil {
			return nil, err
		}
		return builders.FromBatches(batch), nil
	case map[string]any:
		batch, err := keyedBatch(v)
		if err != nil {
			return nil, err
		}
		return builders.FromBatches(batch), nil
	default:
		return nil, fmt.Errorf("handlers.JSONHandler: %w: %s", core.ErrUnsupportedStructure, path)
	}
}

// Write renders the batch as an indented array of objects. Nil values
// become JSON nulls.
func (h *JSONHandler) Write(batch *core.Batch, path string, _ core.Options) error {
	objects := make([]map[string]any, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		obj := make(map[string]any, len(batch.Header))
		for i, col := range batch.Header {
			if i < len(row) {
				obj[col] = row[i]
			} else {
				obj[col] = nil
			}
		}
		objects = append(objects, obj)
	}

	data, err := json.MarshalIndent(objects, "", "  ")
	if err != nil {
		return fmt.Errorf("handlers.JSONHandler: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("handlers.JSONHandler: %w", err)
	}
	return nil
}

// objectsBatch converts an array of objects into a batch. Column order
// is the sorted union of all object keys, so output is deterministic
// regardless of map iteration.
func objectsBatch(elements []any) (*core.Batch, error) {
	objects := make([]map[string]any, 0, len(elements))
	keys := map[string]struct{}{}
	for _, el := range elements {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("handlers.JSONHandler: %w: array element is not an object", core.ErrNoTabularData)
		}
		for k := range obj {
			keys[k] = struct{}{}
		}
		objects = append(objects, obj)
	}

	header := make(core.Header, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Strings(header)

	rows := make([]core.Row, len(objects))
	for i, obj := range objects {
		row := make(core.Row, len(header))
		for j, col := range header {
			row[j] = obj[col]
		}
		rows[i] = row
	}
	return core.NewBatch(header, rows), nil
}

// keyedBatch flattens a one-level keyed document into pseudo-sheets and
// merges them. Keys are processed in sorted order; keys holding
// anything but an array are skipped.
func keyedBatch(doc map[string]any) (*core.Batch, error) {
	keys := sortedKeys(doc)

	sheets := make([]sheet, 0, len(keys))
	for _, key := range keys {
		elements, ok := doc[key].([]any)
		if !ok {
			continue
		}
		flattened, err := flattenElements(key, elements)
		if err != nil {
			return nil, err
		}
		batch, err := objectsBatch(flattened)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet{name: key, batch: batch})
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("handlers.JSONHandler: %w: no array values in document", core.ErrNoTabularData)
	}
	return mergeSheets(sheets), nil
}

// flattenElements spreads each element's immediate sub-objects into the
// element itself, exactly one level deep. Deeper nesting is kept as an
// opaque value. Keys are processed in sorted order so collisions
// resolve deterministically.
func flattenElements(key string, elements []any) ([]any, error) {
	flattened := make([]any, len(elements))
	for i, el := range elements {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("handlers.JSONHandler: %w: element of %q is not an object",
				core.ErrNoTabularData, key)
		}

		flat := make(map[string]any, len(obj))
		for _, k := range sortedKeys(obj) {
			child, ok := obj[k].(map[string]any)
			if !ok {
				flat[k] = obj[k]
				continue
			}
			for _, ck := range sortedKeys(child) {
				flat[ck] = child[ck]
			}
		}
		flattened[i] = flat
	}
	return flattened, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
