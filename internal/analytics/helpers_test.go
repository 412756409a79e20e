package analytics_test

import "medinsight/internal/timeframe"

func counts(series []timeframe.DateStat) []int {
	out := make([]int, len(series))
	for i, s := range series {
		out[i] = s.Count
	}
	return out
}

func dates(series []timeframe.DateStat) []string {
	out := make([]string, len(series))
	for i, s := range series {
		out[i] = s.Date
	}
	return out
}
