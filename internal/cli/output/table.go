package output

import (
	"io"
	"text/tabwriter"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

// TableFormatter formats tabular values as aligned columns.
type TableFormatter struct {
	NoHeaders bool
}

// Format renders tables, keyed tables and dictionaries as rows. Other values
// are written in q syntax.
func (f *TableFormatter) Format(w io.Writer, v *domain.Value) error {
	if v == nil {
		return nil
	}
	table, ok := ToTable(v)
	if !ok {
		return (&QFormatter{}).Format(w, v)
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

// ToTable converts a tabular value to a Table. Keyed tables are flattened;
// dictionaries become key/value rows.
func ToTable(v *domain.Value) (*Table, bool) {
	switch v.Type() {
	case domain.TypeTable:
		return fromTable(v)
	case domain.TypeDictionary, domain.TypeSortedDictionary:
		if v.IsKeyedTable() {
			flat, err := v.Unkey()
			if err != nil {
				return nil, false
			}
			return fromTable(flat)
		}
		return fromDict(v)
	}
	return nil, false
}

func fromTable(v *domain.Value) (*Table, bool) {
	names, cols, err := v.Table()
	if err != nil {
		return nil, false
	}
	t := &Table{}
	t.SetHeaders(names...)
	for r := 0; r < v.Len(); r++ {
		row := make([]string, len(cols))
		for c, col := range cols {
			x, err := col.Index(r)
			if err != nil {
				return nil, false
			}
			row[c] = cellText(x)
		}
		t.AddRow(row...)
	}
	return t, true
}

func fromDict(v *domain.Value) (*Table, bool) {
	keys, values, _ := v.Dictionary()
	if !keys.Type().IsList() || !values.Type().IsList() {
		return nil, false
	}
	t := &Table{}
	t.SetHeaders("key", "value")
	for i := 0; i < keys.Len(); i++ {
		k, err := keys.Index(i)
		if err != nil {
			return nil, false
		}
		x, err := values.Index(i)
		if err != nil {
			return nil, false
		}
		t.AddRow(cellText(k), cellText(x))
	}
	return t, true
}

// cellText renders symbols and strings bare.
func cellText(v *domain.Value) string {
	switch v.Type() {
	case domain.TypeSymbolAtom:
		s, _ := v.Symbol()
		return s
	case domain.TypeString:
		s, _ := v.Text()
		return s
	}
	return v.String()
}

// Table is a simple table with headers and rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		writeRow(tw, t.Headers)
	}
	for _, row := range t.Rows {
		writeRow(tw, row)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			io.WriteString(w, "\t")
		}
		io.WriteString(w, cell)
	}
	io.WriteString(w, "\n")
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders sets the table headers.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}
