package storage

import (
	"sort"
	"strconv"

	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// ColumnID is the generated 1-based row identifier column.
const ColumnID = "id"

// Row maps column names to cell text.
type Row map[string]string

// Table is a row-ordered, column-ordered projection of records.
type Table struct {
	Columns []string
	Rows    []Row
}

// TableFromRecords builds a table whose columns are the union of the record
// fields, in extraction order.
func TableFromRecords(records []*types.Record) *Table {
	t := &Table{Rows: make([]Row, 0, len(records))}
	seen := make(map[string]struct{})
	for _, rec := range records {
		fields := rec.Fields()
		for _, col := range types.RecordColumns {
			if _, ok := fields[col]; !ok {
				continue
			}
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				t.Columns = append(t.Columns, col)
			}
		}
		t.Rows = append(t.Rows, Row(fields))
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Cell returns the text at (row, col), or "" if the cell is absent.
func (t *Table) Cell(row int, col string) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][col]
}

// Values returns a row's cells in column order.
func (t *Table) Values(row int) []string {
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = t.Cell(row, col)
	}
	return out
}

// HasColumn reports whether col is one of the table's columns.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		r := make(Row, len(row))
		for k, v := range row {
			r[k] = v
		}
		c.Rows[i] = r
	}
	return c
}

// Normalize replaces empty cells, the literal "None" and cells missing from a
// row with the N/A sentinel. It is idempotent.
func (t *Table) Normalize() *Table {
	for _, row := range t.Rows {
		for _, col := range t.Columns {
			if v, ok := row[col]; !ok || v == "" || v == "None" {
				row[col] = types.NotAvailable
			}
		}
	}
	return t
}

// WithID sets the id column to 1..n in row order, adding it first if absent.
func (t *Table) WithID() *Table {
	if !t.HasColumn(ColumnID) {
		t.Columns = append([]string{ColumnID}, t.Columns...)
	}
	for i, row := range t.Rows {
		row[ColumnID] = strconv.Itoa(i + 1)
	}
	return t
}

// OrderColumns sorts the columns lexicographically, then moves the pinned
// columns that exist to the front in the given order.
func (t *Table) OrderColumns(pinned ...string) *Table {
	sorted := append([]string(nil), t.Columns...)
	sort.Strings(sorted)

	isPinned := make(map[string]bool, len(pinned))
	ordered := make([]string, 0, len(sorted))
	for _, p := range pinned {
		if t.HasColumn(p) && !isPinned[p] {
			isPinned[p] = true
			ordered = append(ordered, p)
		}
	}
	for _, col := range sorted {
		if !isPinned[col] {
			ordered = append(ordered, col)
		}
	}
	t.Columns = ordered
	return t
}
