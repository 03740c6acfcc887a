// Package view derives what a client shows from the current role and data.
//
// Compose is a pure function: the same role, list, stats and summaries always
// produce the same Plan. Renderers (text output, the terminal dashboard) only
// ever draw a Plan and never consult the role themselves.
package view

import (
	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/felixgeelhaar/feedback/pkg/domain/session"
)

// LogoutControl selects which logout affordance is shown, if any.
type LogoutControl string

const (
	LogoutNone  LogoutControl = ""
	LogoutAdmin LogoutControl = "admin"
	LogoutUser  LogoutControl = "user"
)

// ExportFormat names one export download.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// Card is one rendered feedback item.
type Card struct {
	ID         int
	Category   string
	Text       string
	Author     string
	Timestamp  string
	Screenshot string
	Sentiment  string

	CanDelete    bool
	CanSummarize bool
	// Summary is the summary text or placeholder; empty when never requested.
	Summary string
}

// Bucket is one sentiment section of the admin view.
type Bucket struct {
	Sentiment feedback.Sentiment
	Heading   string
	Cards     []Card
}

// StatsPanel is the rendered aggregate.
type StatsPanel struct {
	Total       int
	ByCategory  []feedback.Count
	BySentiment []feedback.Count
}

// Plan is everything a renderer needs.
type Plan struct {
	Role   session.Role
	Banner string

	ShowSubmitForm bool
	Exports        []ExportFormat
	Logout         LogoutControl

	// Flat is set for anonymous visitors and users.
	Flat []Card
	// Buckets is set for admins, always Positive, Neutral, Negative.
	Buckets []Bucket

	Stats StatsPanel
}

// ShowExport reports whether export controls are present.
func (p Plan) ShowExport() bool {
	return len(p.Exports) > 0
}

// CardCount returns the number of cards across the flat list or buckets.
func (p Plan) CardCount() int {
	n := len(p.Flat)
	for _, b := range p.Buckets {
		n += len(b.Cards)
	}
	return n
}

// Compose builds the plan for role. summaries maps feedback id to the text to
// display (already resolved to a placeholder where needed).
func Compose(role session.Role, items []feedback.Item, stats feedback.Stats, summaries map[int]string) Plan {
	stats = stats.Normalize()
	plan := Plan{
		Role: role,
		Stats: StatsPanel{
			Total:       stats.Total,
			ByCategory:  stats.CategoryCounts(),
			BySentiment: stats.SentimentCounts(),
		},
	}

	if role.IsAdmin() {
		plan.Banner = "Logged in as Admin"
		plan.Logout = LogoutAdmin
		plan.Exports = []ExportFormat{ExportCSV, ExportJSON}
		plan.Buckets = bucketsBySentiment(items, summaries)
		return plan
	}

	plan.ShowSubmitForm = true
	if role == session.RoleUser {
		plan.Banner = "Logged in as User"
		plan.Logout = LogoutUser
	}
	plan.Flat = make([]Card, 0, len(items))
	for _, item := range items {
		plan.Flat = append(plan.Flat, newCard(item))
	}
	return plan
}

// bucketsBySentiment filters by exact sentiment match. Items with an absent
// or unrecognised sentiment land in no bucket.
func bucketsBySentiment(items []feedback.Item, summaries map[int]string) []Bucket {
	buckets := make([]Bucket, 0, 3)
	for _, sentiment := range feedback.AllSentiments() {
		b := Bucket{
			Sentiment: sentiment,
			Heading:   sentiment.Emoji() + " " + sentiment.String() + " Feedback",
			Cards:     []Card{},
		}
		for _, item := range items {
			if item.Sentiment != sentiment {
				continue
			}
			card := newCard(item)
			card.CanDelete = true
			card.CanSummarize = true
			card.Summary = summaries[item.ID]
			b.Cards = append(b.Cards, card)
		}
		buckets = append(buckets, b)
	}
	return buckets
}

func newCard(item feedback.Item) Card {
	return Card{
		ID:         item.ID,
		Category:   item.Category.String(),
		Text:       item.Text,
		Author:     item.Author(),
		Timestamp:  item.Timestamp.Display(),
		Screenshot: item.Screenshot,
		Sentiment:  item.Sentiment.String(),
	}
}
