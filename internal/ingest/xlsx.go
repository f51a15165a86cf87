package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

// XLSXOptions selects the sheet holding the candidates.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadCandidatesXLSX reads comparables from the first row-headed sheet of
// an XLSX workbook.
func ReadCandidatesXLSX(path string, opts XLSXOptions) ([]model.Comparable, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: xlsx: open file")
	}
	return candidatesFromWorkbook(f, opts)
}

// ReadCandidatesXLSXBytes is ReadCandidatesXLSX over an in-memory workbook.
func ReadCandidatesXLSXBytes(data []byte, opts XLSXOptions) ([]model.Comparable, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: xlsx: open binary")
	}
	return candidatesFromWorkbook(f, opts)
}

func candidatesFromWorkbook(f *xlsx.File, opts XLSXOptions) ([]model.Comparable, error) {
	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("ingest: xlsx: sheet %q is empty", sheet.Name)
	}

	header := rowToStrings(sheet.Rows[0])
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, rowToStrings(row))
	}

	comps, err := mapRows(header, rows, 2)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: xlsx")
	}
	return comps, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("ingest: xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("ingest: xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
