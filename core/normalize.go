package core

import "strings"

// Column names with special meaning during normalization.
const (
	fullNameColumn  = "name"
	firstNameColumn = "first_name"
	lastNameColumn  = "last_name"
)

// NormalizeName applies the configured casing and separator rules to a
// single column name.
func NormalizeName(name string, toLower, spacesToUnderscores bool) string {
	if toLower {
		name = strings.ToLower(name)
	}
	if spacesToUnderscores {
		name = strings.ReplaceAll(name, " ", "_")
	}
	return name
}

// NormalizeBatch rewrites the batch's column names in place:
//
//  1. every name goes through the casing/separator rules,
//  2. aliases are replaced by their standard name per the schema map,
//  3. a full-name column is split on the first space into first/last
//     name columns - but only for columns the batch doesn't already
//     have - and dropped afterwards.
//
// Existing first/last name columns always win, even when their values
// are null; precedence is column-level, never per row.
func NormalizeBatch(b *Batch, schemaMap SchemaMap, toLower, spacesToUnderscores bool) *Batch {
	for i, col := range b.Header {
		b.Header[i] = NormalizeName(col, toLower, spacesToUnderscores)
	}

	if len(schemaMap) > 0 {
		rename := make(map[string]string)
		for standard, aliases := range schemaMap {
			for _, alias := range aliases {
				rename[NormalizeName(alias, toLower, spacesToUnderscores)] = standard
			}
		}
		for i, col := range b.Header {
			if standard, ok := rename[col]; ok {
				b.Header[i] = standard
			}
		}
	}

	splitFullName(b)
	return b
}

// splitFullName breaks a full-name column into head/remainder on the
// first space. The remainder column is only created when at least one
// row actually has a remainder.
func splitFullName(b *Batch) {
	nameIdx := b.ColumnIndex(fullNameColumn)
	if nameIdx < 0 {
		return
	}

	hasFirst := b.ColumnIndex(firstNameColumn) >= 0
	hasLast := b.ColumnIndex(lastNameColumn) >= 0
	if hasFirst && hasLast {
		b.DropColumn(fullNameColumn)
		return
	}

	firsts := make([]any, len(b.Rows))
	lasts := make([]any, len(b.Rows))
	anyLast := false

	for i, row := range b.Rows {
		if nameIdx >= len(row) {
			continue
		}
		switch v := row[nameIdx].(type) {
		case nil:
		case string:
			head, rest, found := strings.Cut(v, " ")
			firsts[i] = head
			if found {
				lasts[i] = rest
				anyLast = true
			}
		default:
			firsts[i] = v
		}
	}

	insertAt := nameIdx + 1
	if !hasFirst {
		b.InsertColumn(insertAt, firstNameColumn, firsts)
		insertAt++
	}
	if !hasLast && anyLast {
		b.InsertColumn(insertAt, lastNameColumn, lasts)
	}

	b.DropColumn(fullNameColumn)
}
