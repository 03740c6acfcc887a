package feedback

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category classifies a submission. The set is closed; the backend stores
// whatever the client sends, so validation happens here.
type Category string

const (
	CategoryGeneral        Category = "General"
	CategoryBug            Category = "Bug"
	CategoryFeatureRequest Category = "Feature Request"
)

// AllCategories returns the categories in display order.
func AllCategories() []Category {
	return []Category{CategoryGeneral, CategoryBug, CategoryFeatureRequest}
}

// IsValid returns true if the category is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryGeneral, CategoryBug, CategoryFeatureRequest:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory parses a category name. Matching is case-insensitive and
// accepts "feature" and "feature-request" as shorthands. An empty string
// yields CategoryGeneral.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return CategoryGeneral, nil
	case "general":
		return CategoryGeneral, nil
	case "bug":
		return CategoryBug, nil
	case "feature request", "feature-request", "feature":
		return CategoryFeatureRequest, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Sentiment is assigned by the backend at creation time. Values outside the
// three known buckets are kept verbatim so callers can tell them apart from
// an absent sentiment.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// AllSentiments returns the recognised sentiments in bucket order.
func AllSentiments() []Sentiment {
	return []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}
}

// IsValid returns true for Positive, Neutral and Negative.
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	default:
		return false
	}
}

func (s Sentiment) String() string {
	return string(s)
}

// Emoji returns the bucket marker used in headings.
func (s Sentiment) Emoji() string {
	switch s {
	case SentimentPositive:
		return "😊"
	case SentimentNeutral:
		return "😐"
	case SentimentNegative:
		return "😠"
	default:
		return "❔"
	}
}

// AnonymousAuthor is displayed when an item carries no user name.
const AnonymousAuthor = "Anonymous"

// Item is one feedback submission as served by GET /feedback.
// The client only ever holds a snapshot; the backend owns the canonical copy.
type Item struct {
	ID         int       `json:"id"`
	Text       string    `json:"text"`
	Category   Category  `json:"category"`
	Sentiment  Sentiment `json:"sentiment,omitempty"`
	UserName   string    `json:"user_name,omitempty"`
	Screenshot string    `json:"screenshot,omitempty"`
	Timestamp  Timestamp `json:"timestamp"`
}

// Author returns the submitter's name or AnonymousAuthor.
func (i Item) Author() string {
	if strings.TrimSpace(i.UserName) == "" {
		return AnonymousAuthor
	}
	return i.UserName
}

// HasScreenshot reports whether the item references an uploaded screenshot.
func (i Item) HasScreenshot() bool {
	return i.Screenshot != ""
}

// timestampLayout is the format the backend renders timestamps in.
const timestampLayout = "2006-01-02 15:04:05"

// Timestamp wraps time.Time with the backend's wire format. Unparsable values
// decode to the zero time rather than failing the whole list.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts the backend layout, RFC 3339, or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t.Time = parseTimestamp(raw)
	return nil
}

// MarshalJSON renders the backend layout.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(timestampLayout))
}

// Display renders the timestamp for humans; the zero time renders as "-".
func (t Timestamp) Display() string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// Submission is the input of a create call.
type Submission struct {
	Text     string
	Category Category
	// Screenshot is an optional local file path, streamed unmodified.
	Screenshot string
}

// Normalize trims the text, defaults the category and validates both.
func (s Submission) Normalize() (Submission, error) {
	s.Text = strings.TrimSpace(s.Text)
	if s.Text == "" {
		return s, ErrEmptyText
	}
	if s.Category == "" {
		s.Category = CategoryGeneral
	}
	if !s.Category.IsValid() {
		return s, fmt.Errorf("%w: %q", ErrInvalidCategory, s.Category)
	}
	return s, nil
}
