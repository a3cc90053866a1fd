// Package handlers provides the built-in format handlers behind an
// explicit registry, resolved once at startup.
package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tabmerge/tabmerge/core"
)

var _ core.HandlerRegistry = (*Registry)(nil)

// Registry is a closed extension-to-handler mapping. It is built once
// and passed by reference, never mutated afterwards.
type Registry struct {
	byExtension map[string]core.Handler
}

func NewRegistry(handlers ...core.Handler) *Registry {
	r := &Registry{byExtension: make(map[string]core.Handler, len(handlers))}
	for _, h := range handlers {
		r.byExtension[strings.ToLower(h.Extension())] = h
	}
	return r
}

// Default returns the registry of every built-in handler.
func Default() *Registry {
	return NewRegistry(
		NewCSV(),
		NewXLSX(),
		NewJSON(),
		NewSQLite(),
	)
}

// Lookup resolves a file extension, case-insensitive and with or
// without a leading dot.
func (r *Registry) Lookup(extension string) (core.Handler, error) {
	normalized := strings.ToLower(strings.TrimPrefix(extension, "."))
	h, ok := r.byExtension[normalized]
	if !ok {
		return nil, fmt.Errorf("%w: .%s (supported: %s)",
			core.ErrUnsupportedFormat, normalized, strings.Join(r.Extensions(), ", "))
	}
	return h, nil
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
