package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Table is a structured report with a fixed header and ordered rows. The
// header and row schema of status and metrics reports is a compatibility
// contract; Table keeps it explicit and lets rendering stay a detail.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable creates a table with the given header columns.
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// AddRow appends one row. Rows shorter than the header are padded when
// rendered; longer rows keep their extra cells.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// WriteTo renders the table with aligned columns.
func (t *Table) WriteTo(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	if err := writeRow(tw, t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writeRow(tw, row); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) error {
	for i, cell := range cells {
		if i > 0 {
			if _, err := fmt.Fprint(w, "\t"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, cell); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
