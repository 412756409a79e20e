// Package export flattens report bundles into tables and writes them as CSV,
// aligned text or JSON.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/goccy/go-json"
)

// utf8BOM lets spreadsheet tools detect the encoding of exported files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a flat, ordered view of a bundle. Every row has len(Columns) cells.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Tabular is implemented by every report bundle.
type Tabular interface {
	Table() Table
}

// NewTable starts a table with the given columns.
func NewTable(title string, columns ...string) Table {
	return Table{Title: title, Columns: columns}
}

// Append adds a row, padding or truncating it to the column count.
func (t *Table) Append(cells ...string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Int formats an integer cell.
func Int(v int) string { return strconv.Itoa(v) }

// Float formats a float cell with one decimal.
func Float(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

// OptionalFloat formats a nil-able float cell, empty when nil.
func OptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return Float(*v)
}

// WriteCSV writes the table as UTF-8 CSV preceded by a byte order mark.
func WriteCSV(w io.Writer, t Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("error writing BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("error writing CSV rows: %w", err)
	}
	return nil
}

// WriteText writes the table with aligned columns for terminals.
func WriteText(w io.Writer, t Table) error {
	if t.Title != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", t.Title); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeLine(tw, t.Columns)
	for _, row := range t.Rows {
		writeLine(tw, row)
	}
	return tw.Flush()
}

func writeLine(w io.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, cell)
	}
	fmt.Fprintln(w)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	return nil
}
