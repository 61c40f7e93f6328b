// Package aggregate folds stored query records into the dashboard's derived
// statistics. Nothing here is persisted; everything is recomputed on demand.
package aggregate

import (
	"sort"
	"time"

	"github.com/avirta/brandscope/internal/mentions"
	"github.com/avirta/brandscope/internal/models"
)

// dateLayout renders a calendar day the way the original fi-FI dashboard did.
const dateLayout = "2.1.2006"

// BrandTally is one brand's mention totals across all records.
type BrandTally struct {
	Total   int            `json:"total"`
	ByModel map[string]int `json:"byModel"`
}

// Stats is the aggregation output consumed by the dashboard.
type Stats struct {
	BrandMentions map[string]BrandTally `json:"brandMentions"`
	ModelUsage    map[string]int        `json:"modelUsage"`
	QueriesByDate map[string]int        `json:"queriesByDate"`
}

// DateCount is one day's query count, used for the activity chart.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Compute iterates all records once and produces the three derived mappings.
// An empty or nil input yields empty (non-nil) maps.
func Compute(records []models.QueryRecord) Stats {
	stats := Stats{
		BrandMentions: make(map[string]BrandTally),
		ModelUsage:    make(map[string]int),
		QueriesByDate: make(map[string]int),
	}

	for _, rec := range records {
		// Every selected model counts toward usage, whether or not it
		// ultimately produced a response.
		for _, modelID := range rec.Models {
			stats.ModelUsage[modelID]++
		}

		stats.QueriesByDate[rec.Timestamp.Local().Format(dateLayout)]++

		if len(rec.Brands) == 0 {
			continue
		}
		for _, result := range rec.Results {
			if result.Response == nil {
				continue
			}
			for brand, count := range mentions.Count(*result.Response, rec.Brands) {
				tally, ok := stats.BrandMentions[brand]
				if !ok {
					tally = BrandTally{ByModel: make(map[string]int)}
				}
				tally.Total += count
				tally.ByModel[result.ModelID] += count
				stats.BrandMentions[brand] = tally
			}
		}
	}

	return stats
}

// LastDays returns the most recent n distinct calendar days that have
// queries, in chronological order.
func LastDays(records []models.QueryRecord, n int) []DateCount {
	counts := make(map[string]int)
	days := make(map[string]time.Time)
	for _, rec := range records {
		day := rec.Timestamp.Local()
		key := day.Format(dateLayout)
		counts[key]++
		if existing, ok := days[key]; !ok || day.Before(existing) {
			days[key] = day
		}
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return days[keys[i]].Before(days[keys[j]])
	})

	if n > 0 && len(keys) > n {
		keys = keys[len(keys)-n:]
	}

	out := make([]DateCount, 0, len(keys))
	for _, key := range keys {
		out = append(out, DateCount{Date: key, Count: counts[key]})
	}
	return out
}
