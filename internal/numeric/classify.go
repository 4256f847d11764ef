// Package numeric decides how raw engine numbers reach callers without losing
// precision. Classify maps a declared column type to the integer family and
// ToSafe picks between a safe int64, a big integer and exact decimal text.
package numeric

import "strings"

// integerFamily holds the declared type names SQLite gives integer affinity
// that are surfaced as integers rather than decimal text.
var integerFamily = map[string]struct{}{
	"DATE":             {},
	"DATETIME":         {},
	"BOOLEAN":          {},
	"INT":              {},
	"INTEGER":          {},
	"TINYINT":          {},
	"SMALLINT":         {},
	"MEDIUMINT":        {},
	"BIGINT":           {},
	"UNSIGNED BIG INT": {},
	"INT2":             {},
	"INT8":             {},
}

// Classify reports whether a column with the given declared type should be
// rendered as an integer. An empty declared type means the engine reported
// none (expression columns) and is treated as integer family; ToSafe still
// downgrades non-integral values to decimal text.
func Classify(declType string) bool {
	if declType == "" {
		return true
	}
	_, ok := integerFamily[strings.ToUpper(strings.TrimSpace(declType))]
	return ok
}
