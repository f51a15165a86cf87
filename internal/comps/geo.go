package comps

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

const earthRadiusMiles = 3958.8

// point converts a location to a WGS84 point. Returns nil without coordinates.
func point(l model.Location) *geom.Point {
	if !l.HasCoordinates() {
		return nil
	}
	return geom.NewPointFlat(geom.XY, []float64{*l.Lon, *l.Lat}).SetSRID(4326)
}

// DistanceMiles returns the great-circle distance between two WGS84 points.
func DistanceMiles(a, b *geom.Point) float64 {
	lat1, lon1 := a.Y()*math.Pi/180, a.X()*math.Pi/180
	lat2, lon2 := b.Y()*math.Pi/180, b.X()*math.Pi/180
	dLat := lat2 - lat1
	dLon := lon2 - lon1
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

// fillDistances returns a copy of candidates with DistanceMiles computed from
// coordinates wherever the record did not already carry one.
func fillDistances(subject model.SubjectProperty, candidates []model.Comparable) []model.Comparable {
	out := make([]model.Comparable, len(candidates))
	copy(out, candidates)

	origin := point(subject.Location)
	if origin == nil {
		return out
	}
	for i := range out {
		if out[i].DistanceMiles != nil {
			continue
		}
		p := point(out[i].Location)
		if p == nil {
			continue
		}
		d := round2(DistanceMiles(origin, p))
		out[i].DistanceMiles = &d
	}
	return out
}
