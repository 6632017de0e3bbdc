package event

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// AnyVolume matches hits in every volume.
const AnyVolume = -1

// UndefinedPosition is the sentinel returned by position queries that have
// nothing to report.
func UndefinedPosition() r3.Vec {
	nan := math.NaN()
	return r3.Vec{X: nan, Y: nan, Z: nan}
}

// IsUndefined reports whether v is (partly) the NaN sentinel.
func IsUndefined(v r3.Vec) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

func volumeMatches(want, got int) bool {
	return want == AnyVolume || want == got
}
