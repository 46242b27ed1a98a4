package scores

import (
	"context"
	"sort"
)

// Band labels for the fixed score histogram, highest first.
var bandLabels = []string{"90-100", "80-89", "70-79", "60-69", "50-59", "0-49"}

// StatisticsSnapshot summarizes the overall scores of one scholarship's
// applications. It is derived on demand and never stored.
type StatisticsSnapshot struct {
	Total  int            `json:"total"`
	Mean   float64        `json:"mean"`
	Median float64        `json:"median"`
	Min    int            `json:"min"`
	Max    int            `json:"max"`
	Bands  map[string]int `json:"bands"`
}

// Statistics computes mean, median, min, max and the fixed band histogram
// over all overall scores. An empty scholarship yields a zeroed snapshot,
// not an error.
func (a *Aggregator) Statistics(ctx context.Context) (*StatisticsSnapshot, error) {
	all, err := a.AllScores(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &StatisticsSnapshot{
		Bands: make(map[string]int, len(bandLabels)),
	}
	for _, label := range bandLabels {
		snapshot.Bands[label] = 0
	}
	if len(all) == 0 {
		return snapshot, nil
	}

	values := make([]int, 0, len(all))
	sum := 0
	for _, score := range all {
		values = append(values, score.Overall)
		sum += score.Overall
		snapshot.Bands[bandFor(score.Overall)]++
	}
	sort.Ints(values)

	snapshot.Total = len(values)
	snapshot.Mean = float64(sum) / float64(len(values))
	snapshot.Min = values[0]
	snapshot.Max = values[len(values)-1]

	mid := len(values) / 2
	if len(values)%2 == 1 {
		snapshot.Median = float64(values[mid])
	} else {
		snapshot.Median = float64(values[mid-1]+values[mid]) / 2
	}
	return snapshot, nil
}

func bandFor(overall int) string {
	switch {
	case overall >= 90:
		return "90-100"
	case overall >= 80:
		return "80-89"
	case overall >= 70:
		return "70-79"
	case overall >= 60:
		return "60-69"
	case overall >= 50:
		return "50-59"
	default:
		return "0-49"
	}
}
