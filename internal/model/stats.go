package model

import "math"

// GoalStats summarizes one owner's goals.
type GoalStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	NotStarted int `json:"notStarted"`
	OnHold     int `json:"onHold"`

	// ByPriority always has all three priorities; ByCategory only has the
	// categories in use.
	ByCategory map[Category]int `json:"byCategory"`
	ByPriority map[Priority]int `json:"byPriority"`

	AverageProgress int `json:"averageProgress"`
}

// ComputeStats reduces goals into GoalStats without touching them. Cancelled
// goals count toward Total but toward none of the status buckets.
func ComputeStats(goals []*Goal) GoalStats {
	stats := GoalStats{
		Total:      len(goals),
		ByCategory: map[Category]int{},
		ByPriority: map[Priority]int{},
	}
	for _, p := range Priorities {
		stats.ByPriority[p] = 0
	}

	sum := 0
	for _, g := range goals {
		switch g.Status {
		case GoalStatusCompleted:
			stats.Completed++
		case GoalStatusInProgress:
			stats.InProgress++
		case GoalStatusNotStarted:
			stats.NotStarted++
		case GoalStatusOnHold:
			stats.OnHold++
		}

		if _, ok := stats.ByPriority[g.Priority]; ok {
			stats.ByPriority[g.Priority]++
		}
		stats.ByCategory[g.Category]++
		sum += g.Progress
	}

	if stats.Total > 0 {
		stats.AverageProgress = int(math.Round(float64(sum) / float64(stats.Total)))
	}

	return stats
}
