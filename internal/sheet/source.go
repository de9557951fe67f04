// Package sheet reads logbook spreadsheets into trip records.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when the requested worksheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// Source yields raw rows addressable by position.
type Source interface {
	Rows() ([][]string, error)
}

// XLSX reads one worksheet of an Excel workbook. Cells are read raw, so
// native date cells arrive as serial numbers.
type XLSX struct {
	Path  string
	Sheet string
}

// Rows implements Source.
func (x XLSX) Rows() ([][]string, error) {
	f, err := excelize.OpenFile(x.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only workbook.
			_ = cerr
		}
	}()

	sheets := f.GetSheetList()
	name := x.Sheet
	if name == "" {
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
		}
		name = sheets[0]
	} else if !contains(sheets, name) {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, name, strings.Join(sheets, ", "))
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}
	return rows, nil
}

// SheetNames lists the worksheets of a workbook.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return f.GetSheetList(), nil
}

// CSV reads a delimited text export of the logbook sheet.
type CSV struct {
	Path  string
	Comma rune
}

// Rows implements Source.
func (c CSV) Rows() ([][]string, error) {
	file, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only export.
			_ = cerr
		}
	}()

	reader := csv.NewReader(file)
	if c.Comma != 0 {
		reader.Comma = c.Comma
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rows, nil
}

// Open picks a Source from the file extension.
func Open(path, sheetName string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("source file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return XLSX{Path: path, Sheet: sheetName}, nil
	case ".csv":
		return CSV{Path: path}, nil
	case ".tsv":
		return CSV{Path: path, Comma: '\t'}, nil
	default:
		return nil, fmt.Errorf("unsupported source format %q", filepath.Ext(path))
	}
}

func contains(items []string, item string) bool {
	for _, it := range items {
		if it == item {
			return true
		}
	}
	return false
}
