package comps

import (
	"time"

	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/mao"
	"github.com/taxdeedflow/comps-cli/internal/model"
	"github.com/taxdeedflow/comps-cli/internal/repair"
)

var testAsOf = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrTime(v time.Time) *time.Time {
	return &v
}

func daysBefore(n int) *time.Time {
	return ptrTime(testAsOf.AddDate(0, 0, -n))
}

func testValuationConfig() config.ValuationConfig {
	return config.ValuationConfig{
		Comps:  DefaultCompConfig(),
		Repair: repair.DefaultRates(),
		MAO:    mao.DefaultConfig(),
	}
}

func testSubject() model.SubjectProperty {
	return model.SubjectProperty{
		ID:        "subj-1",
		Address:   "100 Main St",
		Sqft:      ptrFloat64(1800),
		LotSqft:   ptrFloat64(7000),
		Bedrooms:  ptrFloat64(3),
		Bathrooms: ptrFloat64(2),
		YearBuilt: ptrInt(1995),
		Type:      model.PropertyTypeSingleFamily,
		Location:  model.Location{Lat: ptrFloat64(30.2672), Lon: ptrFloat64(-97.7431)},
	}
}

// perfectComp matches testSubject on every attribute, sold 30 days before
// testAsOf, 0.2 miles away.
func perfectComp(id string, price float64) model.Comparable {
	return model.Comparable{
		ID:            id,
		SoldPrice:     ptrFloat64(price),
		Sqft:          ptrFloat64(1800),
		LotSqft:       ptrFloat64(7000),
		Bedrooms:      ptrFloat64(3),
		Bathrooms:     ptrFloat64(2),
		YearBuilt:     ptrInt(1995),
		Type:          model.PropertyTypeSingleFamily,
		SoldDate:      daysBefore(30),
		DistanceMiles: ptrFloat64(0.2),
	}
}

func scenarioAComps() []model.Comparable {
	return []model.Comparable{
		perfectComp("c1", 200_000),
		perfectComp("c2", 205_000),
		perfectComp("c3", 210_000),
		perfectComp("c4", 215_000),
		perfectComp("c5", 220_000),
	}
}
