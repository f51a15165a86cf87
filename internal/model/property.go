// Package model defines the data types shared by the valuation core, the
// store, and the CLI/HTTP surfaces.
package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// PropertyType classifies a property for comparison purposes.
type PropertyType string

const (
	PropertyTypeSingleFamily PropertyType = "single_family"
	PropertyTypeMobile       PropertyType = "mobile"
	PropertyTypeCondo        PropertyType = "condo"
	PropertyTypeTownhome     PropertyType = "townhome"
	PropertyTypeMultiFamily  PropertyType = "multi_family"
	PropertyTypeLand         PropertyType = "land"
	PropertyTypeApartment    PropertyType = "apartment"
)

var propertyTypeAliases = map[string]PropertyType{
	"single_family": PropertyTypeSingleFamily,
	"single-family": PropertyTypeSingleFamily,
	"single family": PropertyTypeSingleFamily,
	"sfr":           PropertyTypeSingleFamily,
	"house":         PropertyTypeSingleFamily,
	"mobile":        PropertyTypeMobile,
	"manufactured":  PropertyTypeMobile,
	"mobile_home":   PropertyTypeMobile,
	"condo":         PropertyTypeCondo,
	"condominium":   PropertyTypeCondo,
	"townhome":      PropertyTypeTownhome,
	"townhouse":     PropertyTypeTownhome,
	"multi_family":  PropertyTypeMultiFamily,
	"multi-family":  PropertyTypeMultiFamily,
	"multifamily":   PropertyTypeMultiFamily,
	"duplex":        PropertyTypeMultiFamily,
	"land":          PropertyTypeLand,
	"lot":           PropertyTypeLand,
	"vacant_land":   PropertyTypeLand,
	"apartment":     PropertyTypeApartment,
}

// ParsePropertyType normalizes a free-form type label. An empty label
// returns an empty type (unknown).
func ParsePropertyType(s string) (PropertyType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", nil
	}
	if t, ok := propertyTypeAliases[key]; ok {
		return t, nil
	}
	return "", eris.Errorf("model: unknown property type %q", s)
}

// Valid reports whether t is one of the known property types.
func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeSingleFamily, PropertyTypeMobile, PropertyTypeCondo,
		PropertyTypeTownhome, PropertyTypeMultiFamily, PropertyTypeLand,
		PropertyTypeApartment:
		return true
	}
	return false
}

// Location is a point or postal code. Either may be absent.
type Location struct {
	Lat        *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`
	PostalCode string   `json:"postal_code,omitempty" yaml:"postal_code,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// SubjectProperty is the property being valued. It is treated as immutable.
type SubjectProperty struct {
	ID            string       `json:"id" yaml:"id"`
	Address       string       `json:"address,omitempty" yaml:"address,omitempty"`
	Sqft          *float64     `json:"sqft,omitempty" yaml:"sqft,omitempty"`
	LotSqft       *float64     `json:"lot_sqft,omitempty" yaml:"lot_sqft,omitempty"`
	Bedrooms      *float64     `json:"bedrooms,omitempty" yaml:"bedrooms,omitempty"`
	Bathrooms     *float64     `json:"bathrooms,omitempty" yaml:"bathrooms,omitempty"`
	YearBuilt     *int         `json:"year_built,omitempty" yaml:"year_built,omitempty"`
	Type          PropertyType `json:"type,omitempty" yaml:"type,omitempty"`
	Location      Location     `json:"location" yaml:"location"`
	MarketValue   *float64     `json:"market_value,omitempty" yaml:"market_value,omitempty"`
	AssessedValue *float64     `json:"assessed_value,omitempty" yaml:"assessed_value,omitempty"`
	TotalDue      *float64     `json:"total_due,omitempty" yaml:"total_due,omitempty"`
}

// SubjectOverrides replaces selected subject attributes for one analysis.
type SubjectOverrides struct {
	LotSqft   *float64     `json:"lot_sqft,omitempty" yaml:"lot_sqft,omitempty"`
	Bedrooms  *float64     `json:"bedrooms,omitempty" yaml:"bedrooms,omitempty"`
	Bathrooms *float64     `json:"bathrooms,omitempty" yaml:"bathrooms,omitempty"`
	YearBuilt *int         `json:"year_built,omitempty" yaml:"year_built,omitempty"`
	Type      PropertyType `json:"type,omitempty" yaml:"type,omitempty"`
	TotalDue  *float64     `json:"total_due,omitempty" yaml:"total_due,omitempty"`
}

// WithOverrides returns a copy of the subject with the non-nil overrides applied.
func (s SubjectProperty) WithOverrides(o SubjectOverrides) SubjectProperty {
	out := s
	if o.LotSqft != nil {
		out.LotSqft = o.LotSqft
	}
	if o.Bedrooms != nil {
		out.Bedrooms = o.Bedrooms
	}
	if o.Bathrooms != nil {
		out.Bathrooms = o.Bathrooms
	}
	if o.YearBuilt != nil {
		out.YearBuilt = o.YearBuilt
	}
	if o.Type != "" {
		out.Type = o.Type
	}
	if o.TotalDue != nil {
		out.TotalDue = o.TotalDue
	}
	return out
}

// Comparable is a raw sale or listing record supplied by an external search.
type Comparable struct {
	ID            string       `json:"id" yaml:"id"`
	Address       string       `json:"address,omitempty" yaml:"address,omitempty"`
	SoldPrice     *float64     `json:"sold_price,omitempty" yaml:"sold_price,omitempty"`
	ListPrice     *float64     `json:"list_price,omitempty" yaml:"list_price,omitempty"`
	Sqft          *float64     `json:"sqft,omitempty" yaml:"sqft,omitempty"`
	LotSqft       *float64     `json:"lot_sqft,omitempty" yaml:"lot_sqft,omitempty"`
	Bedrooms      *float64     `json:"bedrooms,omitempty" yaml:"bedrooms,omitempty"`
	Bathrooms     *float64     `json:"bathrooms,omitempty" yaml:"bathrooms,omitempty"`
	YearBuilt     *int         `json:"year_built,omitempty" yaml:"year_built,omitempty"`
	Type          PropertyType `json:"type,omitempty" yaml:"type,omitempty"`
	SoldDate      *time.Time   `json:"sold_date,omitempty" yaml:"sold_date,omitempty"`
	ListDate      *time.Time   `json:"list_date,omitempty" yaml:"list_date,omitempty"`
	DistanceMiles *float64     `json:"distance_miles,omitempty" yaml:"distance_miles,omitempty"`
	Location      Location     `json:"location" yaml:"location"`
	Photos        []string     `json:"photos,omitempty" yaml:"photos,omitempty"`
}

// Price returns the sold price when positive, else the list price when
// positive, else nil.
func (c Comparable) Price() *float64 {
	if c.SoldPrice != nil && *c.SoldPrice > 0 {
		return c.SoldPrice
	}
	if c.ListPrice != nil && *c.ListPrice > 0 {
		return c.ListPrice
	}
	return nil
}

// SaleDate returns the sold date, falling back to the list date.
func (c Comparable) SaleDate() *time.Time {
	if c.SoldDate != nil {
		return c.SoldDate
	}
	return c.ListDate
}
