package models

const (
	ContentTypePost    = "post"
	ContentTypeComment = "comment"
)

// CollectedItem is one keyword-matching post or comment. It is the row
// format of the raw table.
type CollectedItem struct {
	Subreddit  string  `csv:"subreddit" json:"subreddit"`
	Category   string  `csv:"category" json:"category"`
	Type       string  `csv:"type" json:"type"`
	Text       string  `csv:"text" json:"text"`
	Score      int     `csv:"score" json:"score"`
	CreatedUTC float64 `csv:"created_utc" json:"created_utc"`
	ID         string  `csv:"id" json:"id"`
	Keyword    string  `csv:"keyword" json:"keyword"`
}
