package aligner

import (
	"time"

	"github.com/slowdive42/news2alpha/pkg/models"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

// dayIndex maps a UTC day key to that day's aggregate.
type dayIndex map[string]models.DailyAggregate

func indexByDay(aggs []models.DailyAggregate) dayIndex {
	idx := make(dayIndex, len(aggs))
	for _, a := range aggs {
		idx[utils.DayKey(a.Date)] = a
	}
	return idx
}

// Join is a left outer join of market bar times against daily aggregates.
// It returns one entry per bar, in bar order. Bars on days without news get
// SentimentMean 0 and NewsCount 0. Days that only appear in aggs are dropped.
func Join(bars []time.Time, aggs []models.DailyAggregate) []models.DailyAggregate {
	idx := indexByDay(aggs)
	out := make([]models.DailyAggregate, len(bars))
	for i, ts := range bars {
		if agg, ok := idx[utils.DayKey(ts)]; ok {
			out[i] = agg
			continue
		}
		out[i] = models.DailyAggregate{Date: utils.StartOfDayUTC(ts)}
	}
	return out
}

// unmatchedDays counts aggregate days with no bar on the same day.
func unmatchedDays(bars []time.Time, aggs []models.DailyAggregate) int {
	seen := make(map[string]struct{}, len(bars))
	for _, ts := range bars {
		seen[utils.DayKey(ts)] = struct{}{}
	}
	n := 0
	for _, a := range aggs {
		if _, ok := seen[utils.DayKey(a.Date)]; !ok {
			n++
		}
	}
	return n
}

// checkUniqueDays rejects market input with more than one bar per UTC day.
func checkUniqueDays(file string, bars []time.Time) error {
	first := make(map[string]int, len(bars))
	for i, ts := range bars {
		key := utils.DayKey(ts)
		if prev, ok := first[key]; ok {
			return &DuplicateDayError{File: file, Day: key, FirstRow: prev + 1, SecondRow: i + 1}
		}
		first[key] = i
	}
	return nil
}
