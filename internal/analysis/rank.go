package analysis

import (
	"sort"

	"neighborgrid/internal/model"
)

type RankedHome struct {
	Rank int
	Summary
}

// RankHomes summarizes each home and sorts descending by final credits,
// then by self-sufficiency. Ties keep home ID order.
func RankHomes(records []model.HourRecord) []RankedHome {
	sums := SummarizeByHome(records)
	sort.SliceStable(sums, func(i, j int) bool {
		if sums[i].FinalCreditsKWh != sums[j].FinalCreditsKWh {
			return sums[i].FinalCreditsKWh > sums[j].FinalCreditsKWh
		}
		return sums[i].SelfSufficiencyPct > sums[j].SelfSufficiencyPct
	})
	out := make([]RankedHome, len(sums))
	for i, s := range sums {
		out[i] = RankedHome{Rank: i + 1, Summary: s}
	}
	return out
}
