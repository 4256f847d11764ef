// Package bind normalises caller parameters into the primitive forms the
// SQLite engine accepts: int64, float64, string, []byte and nil.
//
// Adapt applies the value rules (times become ISO-8601 text, booleans become
// 1 or 0, typed wrappers unwrap recursively, big integers narrow to int64).
// Args applies them to a whole parameter list and enforces that positional
// and named styles are never mixed in one call.
package bind

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/jpl-au/sqlitepdo/internal/value"
)

var (
	// ErrMixedParams is returned when positional and named parameters are
	// used together in one call.
	ErrMixedParams = errors.New("mixed params numeric and keyed are forbidden")
	// ErrOutOfRange is returned for integers the engine cannot store in 64 bits.
	ErrOutOfRange = errors.New("integer out of 64-bit range")
	// ErrUnsupported is returned by Primitive for values with no engine form.
	ErrUnsupported = errors.New("unsupported parameter type")
)

// TimeLayout is the ISO-8601 form used for bound times: UTC with
// millisecond precision and a trailing Z.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Adapt converts v into a value the engine binding layer accepts. Values no
// rule matches are returned unchanged for the engine to accept or reject.
func Adapt(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return FormatTime(x), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return FormatTime(*x), nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case Typed:
		return Adapt(x.Value)
	case *Typed:
		if x == nil {
			return nil, nil
		}
		return Adapt(x.Value)
	case value.Value:
		return Adapt(x.Any())
	case *big.Int:
		if x == nil {
			return nil, nil
		}
		if !x.IsInt64() {
			return nil, fmt.Errorf("%w: %s", ErrOutOfRange, x.String())
		}
		return x.Int64(), nil
	}
	return v, nil
}

// Primitive adapts v and then coerces the result into a driver.Value using
// the database/sql default conversion, so int, uint32, float32 and similar
// Go kinds come out as int64 or float64.
func Primitive(v any) (driver.Value, error) {
	a, err := Adapt(v)
	if err != nil {
		return nil, err
	}
	out, err := driver.DefaultParameterConverter.ConvertValue(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, a)
	}
	return out, nil
}

// Args adapts a full parameter list. A single map[string]any argument is
// expanded into named parameters in key order. Names may carry a leading
// ':', '@' or '$', which is stripped.
func Args(args ...any) ([]any, error) {
	if len(args) == 1 {
		if m, ok := args[0].(map[string]any); ok {
			args = named(m)
		}
	}

	var positional, keyed int
	for _, a := range args {
		if _, ok := a.(sql.NamedArg); ok {
			keyed++
		} else {
			positional++
		}
	}
	if positional > 0 && keyed > 0 {
		return nil, ErrMixedParams
	}

	out := make([]any, len(args))
	for i, a := range args {
		if na, ok := a.(sql.NamedArg); ok {
			v, err := Adapt(na.Value)
			if err != nil {
				return nil, fmt.Errorf("bind parameter %q: %w", na.Name, err)
			}
			out[i] = sql.Named(trimPrefix(na.Name), v)
			continue
		}
		v, err := Adapt(a)
		if err != nil {
			return nil, fmt.Errorf("bind parameter %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func named(m map[string]any) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = sql.Named(k, m[k])
	}
	return out
}

func trimPrefix(name string) string {
	return strings.TrimLeft(name, ":@$")
}
