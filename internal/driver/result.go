// result.go converts raw engine output into caller-facing results.
//
// Separated from conn.go so the per-cell rules sit next to the types they
// fill. Every numeric cell passes through the classifier and the safe
// number converter; text, blobs and NULLs pass through untouched.

package driver

import (
	sqldriver "database/sql/driver"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jpl-au/sqlitepdo/internal/metrics"
	"github.com/jpl-au/sqlitepdo/internal/numeric"
	"github.com/jpl-au/sqlitepdo/internal/value"
)

// Column describes one result column.
type Column struct {
	Name string `json:"name"`
	// Column is the origin column name. The engine surface used here does
	// not expose origins, so it repeats Name.
	Column string `json:"column"`
	// Table is the owning table, empty when unknown or computed.
	Table string `json:"table"`
	// Database is the owning schema, empty when unknown or computed.
	Database string `json:"database"`
	// Type is the declared type in upper case, empty when absent.
	Type string `json:"type"`
}

// Affecting describes a statement that returned no rows.
type Affecting struct {
	// LastInsertRowID is NULL when the connection has never inserted a row.
	LastInsertRowID value.Value `json:"lastInsertRowid"`
	AffectedRows    int64       `json:"affectedRows"`
}

// Result is the outcome of one statement execution. Reader selects which
// half is meaningful: Rows and Columns for readers, Affecting otherwise.
type Result struct {
	Reader    bool            `json:"reader"`
	Affecting Affecting       `json:"affecting"`
	Columns   []Column        `json:"columns"`
	Rows      [][]value.Value `json:"rows"`
}

// Value returns the cell at row r, column c.
func (r *Result) Value(row, col int) value.Value {
	return r.Rows[row][col]
}

// ColumnIndex returns the index of the first column called name, or -1.
func (r *Result) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// describe builds column descriptors from the open rows.
func describe(rows sqldriver.Rows) []Column {
	names := rows.Columns()
	typed, _ := rows.(sqldriver.RowsColumnTypeDatabaseTypeName)
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Column: name}
		if typed != nil {
			cols[i].Type = typed.ColumnTypeDatabaseTypeName(i)
		}
	}
	return cols
}

// collectRows reads every row, converting each cell by its column.
//
// The engine parses text stored in DATE, DATETIME and TIMESTAMP columns
// into times. Those cells are read again as the stored text.
func collectRows(rows sqldriver.Rows, cols []Column) ([][]value.Value, error) {
	dest := make([]sqldriver.Value, len(cols))
	var h *handle

	out := [][]value.Value{}
	for {
		err := rows.Next(dest)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make([]value.Value, len(cols))
		for i, cell := range dest {
			if _, ok := cell.(time.Time); ok {
				if h == nil {
					hv, err := handleOf(rows)
					if err != nil {
						return nil, fmt.Errorf("column %s: %w", cols[i].Name, err)
					}
					h = &hv
				}
				row[i] = value.NewText(h.text(i))
				continue
			}
			v, err := cellValue(cell, cols[i].Type)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", cols[i].Name, err)
			}
			row[i] = v
		}
		out = append(out, row)
	}
	return out, nil
}

// cellValue converts one raw engine cell. declType is the column's declared
// type, empty when absent.
func cellValue(raw any, declType string) (value.Value, error) {
	switch v := raw.(type) {
	case nil:
		return value.NewNull(), nil
	case int64, float64:
		out, err := numeric.ToSafe(v, numeric.Classify(declType))
		if err != nil {
			return value.Value{}, err
		}
		switch out.Kind() {
		case value.BigInt:
			metrics.PrecisionUpgradesTotal.WithLabelValues(metrics.UpgradeBigInt).Inc()
		case value.Decimal:
			metrics.PrecisionUpgradesTotal.WithLabelValues(metrics.UpgradeDecimal).Inc()
		}
		return out, nil
	case string:
		return value.NewText(v), nil
	case []byte:
		return value.NewBlob(v), nil
	}
	return value.Value{}, fmt.Errorf("unexpected engine value %T", raw)
}
