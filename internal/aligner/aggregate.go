package aligner

import (
	"sort"

	"github.com/slowdive42/news2alpha/pkg/models"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

type dayBucket struct {
	sum   float64
	count int
}

// Aggregate groups articles by UTC calendar day and computes the unweighted
// mean sentiment and the article count per day. Days without articles are
// absent from the result, which is sorted by date. Articles sharing a
// timestamp are all counted.
func Aggregate(articles []models.ArticleFeature) []models.DailyAggregate {
	buckets := make(map[string]*dayBucket)
	days := make(map[string]models.DailyAggregate)
	for _, a := range articles {
		key := utils.DayKey(a.PublishedAt)
		b, ok := buckets[key]
		if !ok {
			b = &dayBucket{}
			buckets[key] = b
			days[key] = models.DailyAggregate{Date: utils.StartOfDayUTC(a.PublishedAt)}
		}
		b.sum += a.SentimentScore
		b.count++
	}

	out := make([]models.DailyAggregate, 0, len(buckets))
	for key, b := range buckets {
		d := days[key]
		d.SentimentMean = b.sum / float64(b.count)
		d.NewsCount = b.count
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
