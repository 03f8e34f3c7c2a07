package tabular

// Row maps a column name to the cell value of one data row.
type Row map[string]Value

// Get returns the value for column, or a null value when absent.
func (r Row) Get(column string) Value {
	if v, ok := r[column]; ok {
		return v
	}
	return NullValue()
}

// Table is a parsed tabular file with columns in header order.
type Table struct {
	Columns []string
	Rows    []Row
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the names from required that are not present.
func (t *Table) MissingColumns(required ...string) []string {
	missing := make([]string, 0)
	for _, name := range required {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Head returns a table holding at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    t.Rows[:n],
	}
}
