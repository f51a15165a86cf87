// Package ingest reads candidate comparables and request payloads from CSV,
// XLSX, JSON, and YAML files.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

// Canonical column names for candidate sheets.
const (
	colID            = "id"
	colAddress       = "address"
	colSoldPrice     = "sold_price"
	colListPrice     = "list_price"
	colSqft          = "sqft"
	colLotSqft       = "lot_sqft"
	colBeds          = "beds"
	colBaths         = "baths"
	colYearBuilt     = "year_built"
	colType          = "type"
	colSoldDate      = "sold_date"
	colListDate      = "list_date"
	colDistanceMiles = "distance_miles"
	colLat           = "lat"
	colLon           = "lon"
	colPostalCode    = "postal_code"
	colPhotos        = "photos"
)

// Columns lists the canonical candidate columns in export order.
var Columns = []string{
	colID, colAddress, colSoldPrice, colListPrice, colSqft, colLotSqft,
	colBeds, colBaths, colYearBuilt, colType, colSoldDate, colListDate,
	colDistanceMiles, colLat, colLon, colPostalCode, colPhotos,
}

var columnAliases = map[string]string{
	"comp_id":        colID,
	"mls":            colID,
	"mls_id":         colID,
	"street":         colAddress,
	"sale_price":     colSoldPrice,
	"sold":           colSoldPrice,
	"price":          colListPrice,
	"asking_price":   colListPrice,
	"living_sqft":    colSqft,
	"living_area":    colSqft,
	"square_feet":    colSqft,
	"lot_size":       colLotSqft,
	"bedrooms":       colBeds,
	"bathrooms":      colBaths,
	"year":           colYearBuilt,
	"property_type":  colType,
	"sale_date":      colSoldDate,
	"close_date":     colSoldDate,
	"listing_date":   colListDate,
	"distance":       colDistanceMiles,
	"latitude":       colLat,
	"longitude":      colLon,
	"lng":            colLon,
	"zip":            colPostalCode,
	"zip_code":       colPostalCode,
	"postal":         colPostalCode,
	"photo_urls":     colPhotos,
	"images":         colPhotos,
	"distance_miles": colDistanceMiles,
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
}

// normalizeHeader lowercases a header cell and maps aliases to canonical names.
func normalizeHeader(h string) string {
	key := strings.ToLower(strings.TrimSpace(h))
	key = strings.TrimPrefix(key, "\ufeff")
	key = strings.NewReplacer(" ", "_", "-", "_", "(", "", ")", "").Replace(key)
	if canon, ok := columnAliases[key]; ok {
		return canon
	}
	return key
}

// rowMapper turns string rows into Comparables using a header index.
type rowMapper struct {
	index map[string]int
	errs  model.ValidationErrors
}

func newRowMapper(header []string) (*rowMapper, error) {
	m := &rowMapper{index: make(map[string]int, len(header))}
	for i, h := range header {
		name := normalizeHeader(h)
		if _, dup := m.index[name]; !dup && name != "" {
			m.index[name] = i
		}
	}
	_, sold := m.index[colSoldPrice]
	_, list := m.index[colListPrice]
	if !sold && !list {
		return nil, model.ValidationErrors{{Field: "header", Message: "needs a sold_price or list_price column"}}
	}
	return m, nil
}

func (m *rowMapper) cell(row []string, col string) string {
	i, ok := m.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (m *rowMapper) fail(line int, col, msg string) {
	m.errs = append(m.errs, model.ValidationError{Field: fmt.Sprintf("row %d %s", line, col), Message: msg})
}

func (m *rowMapper) float(row []string, line int, col string) *float64 {
	s := m.cell(row, col)
	if s == "" {
		return nil
	}
	s = strings.NewReplacer("$", "", ",", "", "_", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		m.fail(line, col, fmt.Sprintf("not a number: %q", s))
		return nil
	}
	return &v
}

func (m *rowMapper) int(row []string, line int, col string) *int {
	f := m.float(row, line, col)
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

func (m *rowMapper) date(row []string, line int, col string) *time.Time {
	s := m.cell(row, col)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	m.fail(line, col, fmt.Sprintf("unrecognized date: %q", s))
	return nil
}

// blank reports whether every cell of the row is empty.
func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// comparable maps one data row. line is the 1-based source line for errors.
func (m *rowMapper) comparable(row []string, line int) model.Comparable {
	c := model.Comparable{
		ID:            m.cell(row, colID),
		Address:       m.cell(row, colAddress),
		SoldPrice:     m.float(row, line, colSoldPrice),
		ListPrice:     m.float(row, line, colListPrice),
		Sqft:          m.float(row, line, colSqft),
		LotSqft:       m.float(row, line, colLotSqft),
		Bedrooms:      m.float(row, line, colBeds),
		Bathrooms:     m.float(row, line, colBaths),
		YearBuilt:     m.int(row, line, colYearBuilt),
		SoldDate:      m.date(row, line, colSoldDate),
		ListDate:      m.date(row, line, colListDate),
		DistanceMiles: m.float(row, line, colDistanceMiles),
		Location: model.Location{
			Lat:        m.float(row, line, colLat),
			Lon:        m.float(row, line, colLon),
			PostalCode: m.cell(row, colPostalCode),
		},
	}
	if t := m.cell(row, colType); t != "" {
		pt, err := model.ParsePropertyType(t)
		if err != nil {
			m.fail(line, colType, fmt.Sprintf("unknown property type %q", t))
		}
		c.Type = pt
	}
	if p := m.cell(row, colPhotos); p != "" {
		for _, u := range strings.FieldsFunc(p, func(r rune) bool { return r == ';' || r == '|' }) {
			if u = strings.TrimSpace(u); u != "" {
				c.Photos = append(c.Photos, u)
			}
		}
	}
	return c
}

// mapRows converts a header plus data rows. Blank rows are skipped. All
// cell errors are collected and returned together.
func mapRows(header []string, rows [][]string, firstLine int) ([]model.Comparable, error) {
	m, err := newRowMapper(header)
	if err != nil {
		return nil, err
	}
	out := make([]model.Comparable, 0, len(rows))
	for i, row := range rows {
		if blank(row) {
			continue
		}
		out = append(out, m.comparable(row, firstLine+i))
	}
	if len(m.errs) > 0 {
		return nil, m.errs
	}
	return out, nil
}
