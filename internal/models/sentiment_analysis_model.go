package models

import "strings"

// Sentiment is a classifier label. The zero value means the classification
// call failed and no label was recorded.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentMissing  Sentiment = ""
)

// SentimentOrder is the fixed display order used by reports and charts.
var SentimentOrder = []Sentiment{SentimentNegative, SentimentNeutral, SentimentPositive}

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Score maps a label onto {-1, 0, 1}. Missing and unknown labels score 0.
func (s Sentiment) Score() int {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	default:
		return 0
	}
}

// Title returns the capitalised label, e.g. "Positive".
func (s Sentiment) Title() string {
	if s == SentimentMissing {
		return "Missing"
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

func (s Sentiment) MarshalCSV() (string, error) {
	return string(s), nil
}

func (s *Sentiment) UnmarshalCSV(value string) error {
	*s = Sentiment(strings.TrimSpace(value))
	return nil
}

// LabeledItem is a CollectedItem with its classifier label. Rows are written
// once by the labeler and never changed afterwards.
type LabeledItem struct {
	CollectedItem
	GeminiSentiment Sentiment `csv:"gemini_sentiment" json:"gemini_sentiment"`
	SentimentScore  int       `csv:"sentiment_score" json:"sentiment_score"`
	VaderCompound   float64   `csv:"vader_compound" json:"vader_compound"`
	VaderLabel      Sentiment `csv:"vader_label" json:"vader_label"`
}

// NewLabeledItem derives the score from the label so the two never disagree.
func NewLabeledItem(item CollectedItem, label Sentiment) LabeledItem {
	return LabeledItem{
		CollectedItem:   item,
		GeminiSentiment: label,
		SentimentScore:  label.Score(),
	}
}
