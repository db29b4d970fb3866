package smoketest

import "fmt"

// verifyRanking checks the invariants every ranking response must satisfy:
// ranks start at 1 and are sequential, scores never increase down the list,
// no note appears twice, and the page respects the requested limit.
func verifyRanking(metric string, entries []rankedEntry, limit int) error {
	if len(entries) > limit {
		return fmt.Errorf("%s: %d entries exceed limit %d", metric, len(entries), limit)
	}
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("%s: entry %d has rank %d", metric, i, e.Rank)
		}
		if i > 0 && e.Score > entries[i-1].Score {
			return fmt.Errorf("%s: score increases at rank %d (%.4f > %.4f)",
				metric, e.Rank, e.Score, entries[i-1].Score)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%s: note %s appears twice", metric, e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.PrevRank != nil && *e.PrevRank < 1 {
			return fmt.Errorf("%s: note %s has invalid prev_rank %d", metric, e.ID, *e.PrevRank)
		}
	}
	return nil
}
