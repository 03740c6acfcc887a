package feedback

import "sort"

// Stats is the aggregate served by GET /stats. It is never computed locally.
type Stats struct {
	Total       int            `json:"total"`
	ByCategory  map[string]int `json:"by_category"`
	BySentiment map[string]int `json:"by_sentiment,omitempty"`
}

// Count is one labelled row of a stats breakdown.
type Count struct {
	Label string
	Value int
}

// Normalize replaces absent breakdowns with empty maps. The backend does not
// guarantee by_sentiment is present.
func (s Stats) Normalize() Stats {
	if s.ByCategory == nil {
		s.ByCategory = map[string]int{}
	}
	if s.BySentiment == nil {
		s.BySentiment = map[string]int{}
	}
	return s
}

// Consistent reports whether both breakdowns sum to Total. An empty
// breakdown is not considered; the value is informational only.
func (s Stats) Consistent() bool {
	if len(s.ByCategory) > 0 && sum(s.ByCategory) != s.Total {
		return false
	}
	if len(s.BySentiment) > 0 && sum(s.BySentiment) != s.Total {
		return false
	}
	return true
}

// CategoryCounts returns the category breakdown sorted by label.
func (s Stats) CategoryCounts() []Count {
	return sortedCounts(s.ByCategory)
}

// SentimentCounts returns the sentiment breakdown sorted by label.
func (s Stats) SentimentCounts() []Count {
	return sortedCounts(s.BySentiment)
}

func sortedCounts(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for label, v := range m {
		if label == "" {
			label = "Unclassified"
		}
		counts = append(counts, Count{Label: label, Value: v})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Label < counts[j].Label })
	return counts
}

func sum(m map[string]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}
