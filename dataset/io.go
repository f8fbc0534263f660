package dataset

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

// MissingTokens are the cell spellings read as a missing value.
var MissingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "<nil>"}

// ReadFile loads a .csv or .xlsx file. A missing file yields a NotFoundError.
func ReadFile(path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("file", path, path)
		}
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		t, err := ReadCSV(f)
		return t, errors.Wrapf(err, "read %s", path)
	case ".xlsx":
		return ReadXLSX(path, "")
	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedFormat, "read %s", path)
	}
}

// ReadCSV parses a headered CSV stream, detecting column types.
func ReadCSV(r io.Reader) (*Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(MissingTokens),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "parse csv")
	}
	return fromDataFrame(df)
}

// ReadXLSX loads one worksheet; an empty sheet name selects the first sheet.
// The first row is the header.
func ReadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewNotFoundError("sheet", "(first)", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheet)
	}
	if len(rows) == 0 {
		return nil, errors.NewModelError("ReadXLSX", "empty sheet", errors.ErrEmptyData)
	}

	// excelize trims trailing empty cells; pad every row to the header width.
	width := len(rows[0])
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row[:width]
	}

	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(MissingTokens),
	)
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "parse sheet %s", sheet)
	}
	return fromDataFrame(df)
}

func fromDataFrame(df dataframe.DataFrame) (*Table, error) {
	names := df.Names()
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		s := df.Col(name)
		switch s.Type() {
		case series.Int, series.Float:
			cols = append(cols, NewNumericColumn(name, s.Float()))
		default:
			values := s.Records()
			na := s.IsNaN()
			for i := range values {
				if na[i] {
					values[i] = ""
				}
			}
			cols = append(cols, NewCategoricalColumn(name, values))
		}
	}
	return NewTable(cols...)
}

func toDataFrame(t *Table) dataframe.DataFrame {
	ss := make([]series.Series, 0, t.NumColumns())
	for _, c := range t.Columns() {
		if c.Kind == Numeric {
			ss = append(ss, series.New(c.Floats, series.Float, c.Name))
			continue
		}
		ss = append(ss, series.New(c.Strings, series.String, c.Name))
	}
	return dataframe.New(ss...)
}

// WriteCSV writes the table with a header row.
func WriteCSV(t *Table, w io.Writer) error {
	df := toDataFrame(t)
	if df.Err != nil {
		return errors.Wrap(df.Err, "build frame")
	}
	return errors.Wrap(df.WriteCSV(w, dataframe.WriteHeader(true)), "write csv")
}

// WriteXLSX writes the table to a single-sheet workbook. Missing cells stay
// empty.
func WriteXLSX(t *Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	header := make([]interface{}, t.NumColumns())
	for j, name := range t.Names() {
		header[j] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "write header")
	}

	row := make([]interface{}, t.NumColumns())
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.Columns() {
			switch {
			case c.IsMissing(i):
				row[j] = nil
			case c.Kind == Numeric:
				row[j] = c.Floats[i]
			default:
				row[j] = c.Strings[i]
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	return errors.Wrapf(f.SaveAs(path), "save %s", path)
}

// WriteFile writes a .csv or .xlsx file chosen by extension.
func WriteFile(t *Table, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "create %s", path)
		}
		if err := WriteCSV(t, f); err != nil {
			f.Close()
			return err
		}
		return errors.Wrapf(f.Close(), "close %s", path)
	case ".xlsx":
		return WriteXLSX(t, path)
	default:
		return errors.Wrapf(errors.ErrUnsupportedFormat, "write %s", path)
	}
}
