package clients

import "time"

const (
	REDDIT_AUTH_URL      = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL       = "https://oauth.reddit.com"
	REDDIT_PAGE_SIZE     = 100
	REDDIT_MORE_BATCH    = 100
	DEFAULT_USER_AGENT   = "VaccineSentimentStudy/1.0"
	HTTP_REQUEST_TIMEOUT = 30 * time.Second
	LLM_REQUEST_TIMEOUT  = 60 * time.Second

	// app-only OAuth quota
	REDDIT_REQUESTS_PER_MINUTE = 100
	REDDIT_REQUEST_BURST       = 10
)
