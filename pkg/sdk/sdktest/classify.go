package sdktest

import (
	"strings"

	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
)

var (
	positiveWords = []string{"good", "great", "excellent", "happy", "amazing", "love"}
	negativeWords = []string{"bad", "poor", "terrible", "sad", "hate", "issue", "problem"}
)

// Classify scores text by keyword presence, like the production classifier.
func Classify(text string) feedback.Sentiment {
	lower := strings.ToLower(text)
	score := 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			score--
		}
	}
	switch {
	case score > 0:
		return feedback.SentimentPositive
	case score < 0:
		return feedback.SentimentNegative
	default:
		return feedback.SentimentNeutral
	}
}

// FirstSentence returns the leading sentence of text.
func FirstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		return text[:i+1]
	}
	return text
}
