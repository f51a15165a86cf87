package comps

import (
	"cmp"
	"slices"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

// Classification is the result of bucketing scored comps.
type Classification struct {
	Qualified []model.ScoredComparable
	Extended  []model.ScoredComparable
	Rejected  int
}

// Classify buckets scored comps: A/B qualified, C extended, D/F or no usable
// price rejected. Buckets are ordered by score descending, then most recent
// sale, then input order.
func Classify(scored []model.ScoredComparable) Classification {
	var out Classification
	for _, sc := range scored {
		if sc.AdjustedPrice == nil || *sc.AdjustedPrice <= 0 {
			out.Rejected++
			continue
		}
		switch sc.CompGrade {
		case model.GradeA, model.GradeB:
			out.Qualified = append(out.Qualified, sc)
		case model.GradeC:
			out.Extended = append(out.Extended, sc)
		default:
			out.Rejected++
		}
	}
	slices.SortFunc(out.Qualified, compareRank)
	slices.SortFunc(out.Extended, compareRank)
	return out
}

// compareRank orders by score desc, sale date desc (unknown last), input
// index asc. Input indexes are unique, so the order is total.
func compareRank(a, b model.ScoredComparable) int {
	if c := cmp.Compare(b.CompScore, a.CompScore); c != 0 {
		return c
	}
	ad, bd := a.SaleDate(), b.SaleDate()
	switch {
	case ad != nil && bd != nil:
		if c := bd.Compare(*ad); c != 0 {
			return c
		}
	case ad != nil:
		return -1
	case bd != nil:
		return 1
	}
	return cmp.Compare(a.InputIndex, b.InputIndex)
}
