package schedule

import (
	"sort"
	"time"
)

// Rank orders free start times by absolute distance from the requested
// instant, nearest first, and returns at most limit of them. Two slots at
// equal distance straddle the request; the one after it wins, since moving
// a client later is the more natural offer than moving them earlier.
func Rank(requested time.Time, free []time.Time, limit int) []time.Time {
	if limit <= 0 || len(free) == 0 {
		return nil
	}

	ranked := append([]time.Time(nil), free...)
	sort.SliceStable(ranked, func(i, j int) bool {
		di := absDistance(ranked[i], requested)
		dj := absDistance(ranked[j], requested)
		if di != dj {
			return di < dj
		}
		return ranked[i].After(ranked[j])
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func absDistance(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
