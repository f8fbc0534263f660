// Package dataset holds the in-memory tabular data that flows through the
// cleaning stage and the trainers.
//
// A Table is column-major. Numeric columns store float64 with NaN marking a
// missing cell; categorical columns store strings with "" marking a missing
// cell. Column order is preserved from the source file.
package dataset

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

// Kind classifies a column as numeric or categorical.
type Kind int

const (
	// Numeric columns are candidates for imputation and outlier screening.
	Numeric Kind = iota
	// Categorical columns pass through the numeric stages untouched.
	Categorical
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// Column is one named column of a Table.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
}

// NewNumericColumn creates a numeric column. NaN marks a missing value.
func NewNumericColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Floats: values}
}

// NewCategoricalColumn creates a categorical column. "" marks a missing value.
func NewCategoricalColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: Categorical, Strings: values}
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// IsMissing reports whether row i is missing.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Floats[i])
	}
	return c.Strings[i] == ""
}

// Missing counts missing cells.
func (c *Column) Missing() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Floats != nil {
		out.Floats = append([]float64(nil), c.Floats...)
	}
	if c.Strings != nil {
		out.Strings = append([]string(nil), c.Strings...)
	}
	return out
}

// cell renders row i for duplicate detection.
func (c *Column) cell(i int) string {
	if c.Kind == Numeric {
		return strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
	}
	return c.Strings[i]
}

// Table is an ordered set of equally long columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable builds a table from columns. All columns must have the same length
// and distinct names.
func NewTable(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, errors.NewValidationError("columns", "duplicate column name", c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, errors.NewDimensionError("NewTable", t.rows, c.Len(), 0)
		}
		t.index[c.Name] = i
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// Columns returns the columns in source order.
func (t *Table) Columns() []*Column { return t.columns }

// Names returns column names in source order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Has reports whether the table contains the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// NumericNames returns the numeric column names in source order.
func (t *Table) NumericNames() []string {
	var names []string
	for _, c := range t.columns {
		if c.Kind == Numeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// Floats returns the backing slice of a numeric column. Mutating it mutates
// the table.
func (t *Table) Floats(name string) ([]float64, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, errors.NewNotFoundError("column", name, "")
	}
	if c.Kind != Numeric {
		return nil, errors.NewValidationError(name, "column is not numeric", c.Kind.String())
	}
	return c.Floats, nil
}

// SetFloats replaces the values of a numeric column.
func (t *Table) SetFloats(name string, values []float64) error {
	c, ok := t.Column(name)
	if !ok {
		return errors.NewNotFoundError("column", name, "")
	}
	if c.Kind != Numeric {
		return errors.NewValidationError(name, "column is not numeric", c.Kind.String())
	}
	if len(values) != t.rows {
		return errors.NewDimensionError("SetFloats", t.rows, len(values), 0)
	}
	c.Floats = values
	return nil
}

// MissingColumns returns the imputation candidate set: numeric columns with at
// least one missing entry, in source order.
func (t *Table) MissingColumns() []string {
	var names []string
	for _, c := range t.columns {
		if c.Kind == Numeric && c.Missing() > 0 {
			names = append(names, c.Name)
		}
	}
	return names
}

// MissingCounts returns the number of missing cells per column.
func (t *Table) MissingCounts() map[string]int {
	counts := make(map[string]int, len(t.columns))
	for _, c := range t.columns {
		counts[c.Name] = c.Missing()
	}
	return counts
}

// CompleteRows returns the indices of rows with no missing value in any of the
// named columns.
func (t *Table) CompleteRows(names []string) ([]int, error) {
	cols, err := t.lookup(names)
	if err != nil {
		return nil, err
	}
	var rows []int
	for i := 0; i < t.rows; i++ {
		complete := true
		for _, c := range cols {
			if c.IsMissing(i) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, i)
		}
	}
	return rows, nil
}

// Matrix copies the named numeric columns into a rows × len(names) matrix.
// A nil rows slice selects every row.
func (t *Table) Matrix(names []string, rows []int) (*mat.Dense, error) {
	cols, err := t.lookup(names)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if c.Kind != Numeric {
			return nil, errors.NewValidationError(c.Name, "column is not numeric", c.Kind.String())
		}
	}
	if rows == nil {
		rows = make([]int, t.rows)
		for i := range rows {
			rows[i] = i
		}
	}
	if len(rows) == 0 || len(cols) == 0 {
		return nil, errors.NewModelError("Table.Matrix", "empty selection", errors.ErrEmptyData)
	}
	m := mat.NewDense(len(rows), len(cols), nil)
	for j, c := range cols {
		for i, r := range rows {
			m.Set(i, j, c.Floats[r])
		}
	}
	return m, nil
}

// SetFromMatrix writes the columns of m back into the named numeric columns.
// m must have one row per table row.
func (t *Table) SetFromMatrix(names []string, m mat.Matrix) error {
	r, c := m.Dims()
	if r != t.rows {
		return errors.NewDimensionError("SetFromMatrix", t.rows, r, 0)
	}
	if c != len(names) {
		return errors.NewDimensionError("SetFromMatrix", len(names), c, 1)
	}
	for j, name := range names {
		values := make([]float64, r)
		for i := 0; i < r; i++ {
			values[i] = m.At(i, j)
		}
		if err := t.SetFloats(name, values); err != nil {
			return err
		}
	}
	return nil
}

// DuplicateRatio is the fraction of rows identical, across all columns, to an
// earlier row. Missing cells compare equal to each other.
func (t *Table) DuplicateRatio() float64 {
	if t.rows == 0 {
		return 0
	}
	seen := make(map[string]struct{}, t.rows)
	dups := 0
	var sb strings.Builder
	for i := 0; i < t.rows; i++ {
		sb.Reset()
		for _, c := range t.columns {
			sb.WriteString(c.cell(i))
			sb.WriteByte(0x1f)
		}
		key := sb.String()
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return float64(dups) / float64(t.rows)
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.clone()
	}
	out, _ := NewTable(cols...)
	return out
}

// ColumnProfile summarizes one column.
type ColumnProfile struct {
	Name    string
	Kind    Kind
	Missing int
}

// Profile summarizes a table's shape and missing counts.
type Profile struct {
	Rows    int
	Columns []ColumnProfile
}

// Profile returns a per-column summary in source order.
func (t *Table) Profile() Profile {
	p := Profile{Rows: t.rows, Columns: make([]ColumnProfile, len(t.columns))}
	for i, c := range t.columns {
		p.Columns[i] = ColumnProfile{Name: c.Name, Kind: c.Kind, Missing: c.Missing()}
	}
	return p
}

func (t *Table) lookup(names []string) ([]*Column, error) {
	cols := make([]*Column, len(names))
	for i, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, errors.NewNotFoundError("column", name, "")
		}
		cols[i] = c
	}
	return cols, nil
}
