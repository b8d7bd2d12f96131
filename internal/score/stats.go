package score

import (
	"math"
	"sort"

	"github.com/ppiankov/keywatch/internal/model"
)

const topCategories = 5

// Stats summarizes rule results: match counts, score spread, the most
// frequent categories and how matches spread over priority bands
func Stats(results []model.RuleMatchResult) model.MatchStats {
	stats := model.MatchStats{}

	categories := map[string]int{}
	priorities := map[string]int{}
	byType := map[model.MatchType]int{}
	sum := 0.0
	stats.MinScore = math.Inf(1)

	for _, r := range results {
		if len(r.Matches) > 0 {
			stats.UniqueRules++
		}
		for _, m := range r.Matches {
			stats.TotalMatches++
			sum += m.Score
			stats.MaxScore = math.Max(stats.MaxScore, m.Score)
			stats.MinScore = math.Min(stats.MinScore, m.Score)
			if m.Category != "" {
				categories[m.Category]++
			}
			priorities[m.Priority.Label()]++
			byType[m.Type]++
		}
	}

	if stats.TotalMatches == 0 {
		stats.MinScore = 0
		return stats
	}

	stats.AvgScore = round(sum/float64(stats.TotalMatches), 2)
	stats.PriorityDistribution = priorities
	stats.ByType = byType

	for c, n := range categories {
		stats.TopCategories = append(stats.TopCategories, model.CategoryCount{Category: c, Count: n})
	}
	sort.Slice(stats.TopCategories, func(i, j int) bool {
		a, b := stats.TopCategories[i], stats.TopCategories[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})
	if len(stats.TopCategories) > topCategories {
		stats.TopCategories = stats.TopCategories[:topCategories]
	}

	return stats
}
