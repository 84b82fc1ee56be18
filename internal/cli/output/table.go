package output

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// TableFormatter formats data as an aligned table.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format renders Tabular values, *Table, slices of structs, structs and
// maps. Anything else falls back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case nil:
		return nil
	case Tabular:
		return v.Table(f.Wide).render(w, f.NoHeaders)
	case *Table:
		return v.render(w, f.NoHeaders)
	case Table:
		return v.render(w, f.NoHeaders)
	}

	t, ok := reflectTable(reflect.ValueOf(data), f.Wide)
	if !ok {
		return (&JSONFormatter{}).Format(w, data)
	}
	return t.render(w, f.NoHeaders)
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
	// Empty is printed instead of the headers when there are no rows.
	Empty string
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render writes the table with headers.
func (t *Table) Render(w io.Writer) error {
	return t.render(w, false)
}

func (t Table) render(w io.Writer, noHeaders bool) error {
	if len(t.Rows) == 0 && t.Empty != "" {
		_, err := fmt.Fprintln(w, t.Empty)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func reflectTable(v reflect.Value, wide bool) (*Table, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return &Table{}, true
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		t := NewTable("FIELD", "VALUE")
		for _, col := range columnsOf(v.Type(), true) {
			t.AddRow(col.name, Cell(v.Field(col.index)))
		}
		return t, true

	case reflect.Map:
		t := NewTable("KEY", "VALUE")
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return Cell(keys[i]) < Cell(keys[j]) })
		for _, k := range keys {
			t.AddRow(Cell(k), Cell(v.MapIndex(k)))
		}
		return t, true

	case reflect.Slice, reflect.Array:
		elem := v.Type().Elem()
		for elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			t := NewTable("VALUE")
			for i := 0; i < v.Len(); i++ {
				t.AddRow(Cell(v.Index(i)))
			}
			return t, true
		}
		cols := columnsOf(elem, wide)
		t := &Table{}
		for _, c := range cols {
			t.Headers = append(t.Headers, strings.ToUpper(c.name))
		}
		for i := 0; i < v.Len(); i++ {
			item := reflect.Indirect(v.Index(i))
			row := make([]string, len(cols))
			for j, c := range cols {
				if item.IsValid() {
					row[j] = Cell(item.Field(c.index))
				}
			}
			t.Rows = append(t.Rows, row)
		}
		return t, true
	}
	return nil, false
}

type column struct {
	name  string
	index int
}

// columnsOf lists exported fields by their json name. Fields tagged
// `table:"-"` are skipped, and `table:"wide"` ones only show in wide mode.
func columnsOf(t reflect.Type, wide bool) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("table")
		if tag == "-" || (tag == "wide" && !wide) {
			continue
		}
		name := f.Name
		if js, _, _ := strings.Cut(f.Tag.Get("json"), ","); js == "-" {
			continue
		} else if js != "" {
			name = js
		}
		cols = append(cols, column{name: name, index: i})
	}
	return cols
}

// Cell renders a value for a table cell. Empty values print as "-".
func Cell(v reflect.Value) string {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return "-"
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "-"
	}

	if ts, ok := v.Interface().(time.Time); ok {
		if ts.IsZero() {
			return "-"
		}
		return ts.Local().Format("2006-01-02 15:04")
	}

	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return "-"
		}
		return v.String()
	case reflect.Bool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f == float64(int64(f)) {
			return fmt.Sprintf("%d", int64(f))
		}
		return fmt.Sprintf("%.2f", f)
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		if v.Type().Elem().Kind() == reflect.String {
			parts := make([]string, v.Len())
			for i := range parts {
				parts[i] = v.Index(i).String()
			}
			return strings.Join(parts, ", ")
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	default:
		return fmt.Sprint(v.Interface())
	}
}

// Truncate shortens s to n runes with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
