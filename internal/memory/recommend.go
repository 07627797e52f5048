package memory

import (
	"sort"

	"github.com/pagehound/scraperd/internal/scraper"
)

// Recommend derives ranked selector suggestions for a URL from the
// latest snapshot of its statistics. Ordering is confidence
// descending, ties broken by attempts descending (stronger evidence),
// then by most recent LastSeen (still valid on a changed page).
// Entries with fewer attempts than the configured MinSamples are
// filtered out. Unknown URLs yield an empty slice.
func (s *Store) Recommend(url string) []scraper.Recommendation {
	stats := s.Query(url)

	out := make([]scraper.Recommendation, 0, len(stats))
	for _, stat := range stats {
		if stat.Attempts < s.cfg.MinSamples {
			continue
		}
		out = append(out, scraper.Recommendation{
			Selector:    stat.Selector,
			ElementType: stat.ElementType,
			Confidence:  stat.Confidence(),
			Attempts:    stat.Attempts,
			LastSeen:    stat.LastSeen,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		if out[i].Attempts != out[j].Attempts {
			return out[i].Attempts > out[j].Attempts
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out
}
