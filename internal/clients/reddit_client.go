package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/spacesedan/vaxpulse/config"
	"github.com/spacesedan/vaxpulse/internal/models"
)

type RedditClient struct {
	Client    *http.Client
	apiURL    string
	userAgent string
	limiter   *rate.Limiter
}

type RedditOptions struct {
	AuthURL    string
	APIURL     string
	HTTPClient *http.Client
	// RequestsPerMinute caps API calls across searches, pages and comment
	// expansions. Zero means the reddit quota.
	RequestsPerMinute int
}

// NewRedditClient builds an application-only OAuth client. The token is
// fetched lazily on the first request. The timeout of opts.HTTPClient applies
// to the token fetch and to every API request.
func NewRedditClient(ctx context.Context, cfg config.RedditConfig, opts RedditOptions) *RedditClient {
	if opts.AuthURL == "" {
		opts.AuthURL = REDDIT_AUTH_URL
	}
	if opts.APIURL == "" {
		opts.APIURL = REDDIT_API_URL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: HTTP_REQUEST_TIMEOUT}
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = REDDIT_REQUESTS_PER_MINUTE
	}
	burst := min(REDDIT_REQUEST_BURST, opts.RequestsPerMinute)
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DEFAULT_USER_AGENT
	}

	oauthConf := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     opts.AuthURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)

	// the oauth2 client only borrows the transport
	client := oauthConf.Client(ctx)
	client.Timeout = opts.HTTPClient.Timeout

	return &RedditClient{
		Client:    client,
		apiURL:    strings.TrimRight(opts.APIURL, "/"),
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), burst),
	}
}

// SearchSubreddit pages through keyword search results restricted to one
// subreddit until reddit runs out of results or limit posts were returned.
func (rc *RedditClient) SearchSubreddit(ctx context.Context, subreddit, keyword, timeFilter string, limit int) ([]models.RedditPost, error) {
	op := fmt.Sprintf("search r/%s for %q", subreddit, keyword)

	var posts []models.RedditPost
	after := ""
	for {
		pageSize := REDDIT_PAGE_SIZE
		if limit > 0 && limit-len(posts) < pageSize {
			pageSize = limit - len(posts)
		}

		params := url.Values{}
		params.Set("q", keyword)
		params.Set("restrict_sr", "1")
		params.Set("sort", "new")
		params.Set("t", timeFilter)
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("raw_json", "1")
		if after != "" {
			params.Set("after", after)
		}

		var listing models.RedditAPIResponse
		if err := rc.getJSON(ctx, op, "/r/"+url.PathEscape(subreddit)+"/search", params, &listing); err != nil {
			return posts, err
		}

		for _, child := range listing.Data.Children {
			if child.Kind != models.RedditKindLink {
				continue
			}
			posts = append(posts, models.RedditPost{
				ID:         child.Data.ID,
				Name:       child.Data.Name,
				Subreddit:  child.Data.Subreddit,
				Title:      child.Data.Title,
				Selftext:   child.Data.Selftext,
				Score:      child.Data.Score,
				CreatedUTC: child.Data.CreatedUTC,
			})
		}

		slog.Debug("[RedditClient] Search page fetched",
			slog.String("subreddit", subreddit),
			slog.String("keyword", keyword),
			slog.Int("page_results", len(listing.Data.Children)),
			slog.Int("total", len(posts)))

		if listing.Data.After == "" || len(listing.Data.Children) == 0 {
			return posts, nil
		}
		if limit > 0 && len(posts) >= limit {
			return posts[:limit], nil
		}
		after = listing.Data.After
	}
}

// FetchComments returns the flattened comment tree of a post. At most
// moreLimit "load more comments" expansions are performed; anything behind
// further stubs is left out.
func (rc *RedditClient) FetchComments(ctx context.Context, postID string, moreLimit int) ([]models.RedditComment, error) {
	op := "fetch comments for " + postID

	params := url.Values{}
	params.Set("raw_json", "1")
	params.Set("limit", "500")

	var listings []models.RedditAPIResponse
	if err := rc.getJSON(ctx, op, "/comments/"+url.PathEscape(postID), params, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, WrapError(ErrMalformed, op, fmt.Errorf("expected 2 listings, got %d", len(listings)))
	}

	var comments []models.RedditComment
	var pending [][]string
	walkComments(listings[1].Data.Children, &comments, &pending)

	for expansions := 0; len(pending) > 0 && expansions < moreLimit; expansions++ {
		ids := pending[0]
		pending = pending[1:]

		batch := ids
		if len(batch) > REDDIT_MORE_BATCH {
			pending = append(pending, ids[REDDIT_MORE_BATCH:])
			batch = ids[:REDDIT_MORE_BATCH]
		}

		things, err := rc.moreChildren(ctx, postID, batch)
		if err != nil {
			return comments, err
		}
		walkComments(things, &comments, &pending)
	}

	if len(pending) > 0 {
		slog.Debug("[RedditClient] Comment expansion limit reached",
			slog.String("post_id", postID),
			slog.Int("unexpanded", len(pending)))
	}

	return comments, nil
}

func (rc *RedditClient) moreChildren(ctx context.Context, postID string, ids []string) ([]models.RedditAPIChild, error) {
	params := url.Values{}
	params.Set("api_type", "json")
	params.Set("link_id", models.RedditKindLink+"_"+postID)
	params.Set("children", strings.Join(ids, ","))
	params.Set("raw_json", "1")

	var resp models.RedditMoreChildrenResponse
	if err := rc.getJSON(ctx, "expand comments for "+postID, "/api/morechildren", params, &resp); err != nil {
		return nil, err
	}
	return resp.JSON.Data.Things, nil
}

// walkComments flattens a listing depth first, queueing "more" stubs.
func walkComments(children []models.RedditAPIChild, out *[]models.RedditComment, pending *[][]string) {
	for _, child := range children {
		switch child.Kind {
		case models.RedditKindComment:
			*out = append(*out, models.RedditComment{
				ID:         child.Data.ID,
				Name:       child.Data.Name,
				ParentID:   child.Data.ParentID,
				Body:       child.Data.Body,
				Score:      child.Data.Score,
				CreatedUTC: child.Data.CreatedUTC,
			})

			replies := bytes.TrimSpace(child.Data.Replies)
			if len(replies) == 0 || replies[0] != '{' {
				continue
			}
			var nested models.RedditAPIResponse
			if err := json.Unmarshal(replies, &nested); err != nil {
				slog.Warn("[RedditClient] Skipping unreadable replies",
					slog.String("comment_id", child.Data.ID),
					slog.String("error", err.Error()))
				continue
			}
			walkComments(nested.Data.Children, out, pending)

		case models.RedditKindMore:
			// "continue this thread" stubs carry no ids
			if len(child.Data.Children) > 0 {
				*pending = append(*pending, child.Data.Children)
			}
		}
	}
}

func (rc *RedditClient) getJSON(ctx context.Context, op, path string, params url.Values, out any) error {
	if err := rc.limiter.Wait(ctx); err != nil {
		return WrapError(ErrTransport, op, err)
	}

	endpoint := rc.apiURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return WrapError(ErrTransport, op, err)
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := rc.Client.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return WrapError(ErrUnauthorized, op, err)
		}
		return WrapError(ErrTransport, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resourceStatusError(op, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return WrapError(ErrTransport, op, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return WrapError(ErrMalformed, op, err)
	}
	return nil
}
