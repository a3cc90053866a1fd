package core

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ExtensionOf returns the lowercase extension of a path without the dot.
func ExtensionOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// DiscoverFiles lists the eligible files of a folder in lexical order.
// With recursive set, subdirectories are walked; otherwise only the top
// level is considered. A file is eligible iff its extension
// (case-insensitive, no dot) is in the filter.
func DiscoverFiles(folder string, recursive bool, extensions []string) ([]string, error) {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	var files []string

	if recursive {
		err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, ok := allowed[ExtensionOf(path)]; ok {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("filepath.WalkDir: %w", err)
		}
		return files, nil
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("os.ReadDir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(folder, entry.Name())
		if _, ok := allowed[ExtensionOf(path)]; ok {
			files = append(files, path)
		}
	}
	return files, nil
}

// sourceFilePath makes a path relative to the input folder for the
// provenance column. Falls back to the bare file name when the path
// cannot be made relative.
func sourceFilePath(inputFolder, path string) string {
	rel, err := filepath.Rel(inputFolder, path)
	if err != nil {
		return filepath.Base(path)
	}
	return rel
}
