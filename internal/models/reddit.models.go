package models

import "encoding/json"

const (
	RedditKindComment = "t1"
	RedditKindLink    = "t3"
	RedditKindListing = "Listing"
	RedditKindMore    = "more"
)

// RedditPost is a search hit flattened from the listing payload.
type RedditPost struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Subreddit  string  `json:"subreddit"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}

// RedditComment is a single node of an expanded comment tree.
type RedditComment struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	ParentID   string  `json:"parent_id"`
	Body       string  `json:"body"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}

type RedditAPIResponse struct {
	Kind string        `json:"kind"`
	Data RedditAPIData `json:"data"`
}

type RedditAPIData struct {
	After    string           `json:"after"`
	Children []RedditAPIChild `json:"children"`
}

type RedditAPIChild struct {
	Kind string             `json:"kind"`
	Data RedditAPIChildData `json:"data"`
}

// RedditAPIChildData covers the fields of links, comments and "more" stubs.
type RedditAPIChildData struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	ParentID   string  `json:"parent_id"`
	Subreddit  string  `json:"subreddit"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Body       string  `json:"body"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`

	// Replies is either an empty string or a nested listing.
	Replies json.RawMessage `json:"replies"`

	// set on "more" stubs
	Count    int      `json:"count"`
	Children []string `json:"children"`
}

type RedditMoreChildrenResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			Things []RedditAPIChild `json:"things"`
		} `json:"data"`
	} `json:"json"`
}
