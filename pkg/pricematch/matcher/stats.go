package matcher

import "github.com/ukaji3/pricematch-go/pkg/pricematch/models"

// Statistics summarizes the scores of results. It returns the zero value for
// an empty slice.
func Statistics(results []models.MatchResult) models.Statistics {
	if len(results) == 0 {
		return models.Statistics{}
	}

	st := models.Statistics{
		Total: len(results),
		Min:   results[0].Score,
		Max:   results[0].Score,
	}
	var sum float64
	for _, r := range results {
		sum += r.Score
		st.Min = min(st.Min, r.Score)
		st.Max = max(st.Max, r.Score)
	}
	st.Average = sum / float64(len(results))
	return st
}
