package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/vaxpulse/config"
)

func newTestReddit(t *testing.T, api http.HandlerFunc) *RedditClient {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/", api)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewRedditClient(context.Background(),
		config.RedditConfig{ClientID: "id", ClientSecret: "secret", UserAgent: "test-agent"},
		RedditOptions{AuthURL: srv.URL + "/api/v1/access_token", APIURL: srv.URL})
}

func listingJSON(after string, children ...string) string {
	return `{"kind":"Listing","data":{"after":"` + after + `","children":[` + strings.Join(children, ",") + `]}}`
}

func TestSearchSubredditPaginates(t *testing.T) {
	var calls int
	rc := newTestReddit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/Welding/search", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "vaccine", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("restrict_sr"))
		assert.Equal(t, "year", r.URL.Query().Get("t"))

		calls++
		if r.URL.Query().Get("after") == "" {
			_, _ = w.Write([]byte(listingJSON("t3_b",
				`{"kind":"t3","data":{"id":"a","title":"Vaccine day","selftext":"body","score":5,"created_utc":1620000000}}`,
				`{"kind":"t3","data":{"id":"b","title":"Other","score":-2,"created_utc":1620000001}}`)))
			return
		}
		assert.Equal(t, "t3_b", r.URL.Query().Get("after"))
		_, _ = w.Write([]byte(listingJSON("",
			`{"kind":"t3","data":{"id":"c","title":"Moderna","score":1,"created_utc":1620000002}}`)))
	})

	posts, err := rc.SearchSubreddit(context.Background(), "Welding", "vaccine", "year", 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "a", posts[0].ID)
	assert.Equal(t, "Vaccine day", posts[0].Title)
	assert.Equal(t, -2, posts[1].Score)
	assert.Equal(t, 1620000002.0, posts[2].CreatedUTC)
}

func TestSearchSubredditRespectsLimit(t *testing.T) {
	rc := newTestReddit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(listingJSON("t3_a",
			`{"kind":"t3","data":{"id":"a","title":"Vaccine","created_utc":1}}`)))
	})

	posts, err := rc.SearchSubreddit(context.Background(), "law", "vaccine", "year", 1)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestSearchSubredditClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"rate limited", http.StatusTooManyRequests, "", ErrRateLimited},
		{"private subreddit", http.StatusForbidden, `{"reason":"private","message":"Forbidden","error":403}`, ErrForbidden},
		{"revoked token", http.StatusUnauthorized, "", ErrUnauthorized},
		{"server error", http.StatusBadGateway, "", ErrUpstream},
		{"bad json", http.StatusOK, "{not json", ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestReddit(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := rc.SearchSubreddit(context.Background(), "law", "vaccine", "year", 0)
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestSearchSubredditForbiddenIsNotFatal(t *testing.T) {
	rc := newTestReddit(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"reason":"quarantined","message":"Forbidden","error":403}`))
	})

	_, err := rc.SearchSubreddit(context.Background(), "law", "vaccine", "year", 0)
	require.Error(t, err)
	assert.False(t, IsFatal(err))
	assert.Equal(t, "forbidden", KindOf(err))
}

func TestSearchSubredditBadCredentialsIsFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rc := NewRedditClient(context.Background(),
		config.RedditConfig{ClientID: "wrong", ClientSecret: "wrong"},
		RedditOptions{AuthURL: srv.URL + "/api/v1/access_token", APIURL: srv.URL})

	_, err := rc.SearchSubreddit(context.Background(), "law", "vaccine", "year", 0)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestFetchCommentsExpandsMoreWithinLimit(t *testing.T) {
	var moreCalls int
	rc := newTestReddit(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/comments/p1":
			nested := listingJSON("", `{"kind":"t1","data":{"id":"c2","parent_id":"t1_c1","body":"reply about pfizer","score":2,"created_utc":3}}`)
			top := listingJSON("",
				`{"kind":"t1","data":{"id":"c1","parent_id":"t3_p1","body":"top level","score":1,"created_utc":2,"replies":`+nested+`}}`,
				`{"kind":"t1","data":{"id":"c3","parent_id":"t3_p1","body":"no replies","score":0,"created_utc":4,"replies":""}}`,
				`{"kind":"more","data":{"id":"m1","count":2,"children":["c4","c5"]}}`,
				`{"kind":"more","data":{"id":"m2","count":1,"children":["c6"]}}`)
			post := listingJSON("", `{"kind":"t3","data":{"id":"p1","title":"t"}}`)
			_, _ = w.Write([]byte("[" + post + "," + top + "]"))
		case "/api/morechildren":
			moreCalls++
			assert.Equal(t, "t3_p1", r.URL.Query().Get("link_id"))
			assert.Equal(t, "c4,c5", r.URL.Query().Get("children"))
			resp := map[string]any{"json": map[string]any{"errors": []any{}, "data": map[string]any{"things": []any{
				map[string]any{"kind": "t1", "data": map[string]any{"id": "c4", "body": "more vaccine talk", "score": 7, "created_utc": 5}},
				map[string]any{"kind": "t1", "data": map[string]any{"id": "c5", "body": "meh", "score": 0, "created_utc": 6}},
			}}}}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	comments, err := rc.FetchComments(context.Background(), "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, moreCalls)

	var ids []string
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, ids)
	assert.Equal(t, "reply about pfizer", comments[1].Body)
	assert.Equal(t, 7, comments[3].Score)
}

func TestFetchCommentsWithoutExpansion(t *testing.T) {
	rc := newTestReddit(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/comments/p1" {
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		top := listingJSON("",
			`{"kind":"t1","data":{"id":"c1","body":"vaccinated","created_utc":2}}`,
			`{"kind":"more","data":{"id":"m1","count":2,"children":["c4"]}}`)
		_, _ = w.Write([]byte("[" + listingJSON("") + "," + top + "]"))
	})

	comments, err := rc.FetchComments(context.Background(), "p1", 0)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestRedditRequestTimeoutCoversAPICalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/r/law/search", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rc := NewRedditClient(context.Background(),
		config.RedditConfig{ClientID: "id", ClientSecret: "secret"},
		RedditOptions{
			AuthURL:    srv.URL + "/api/v1/access_token",
			APIURL:     srv.URL,
			HTTPClient: &http.Client{Timeout: 100 * time.Millisecond},
		})

	start := time.Now()
	_, err := rc.SearchSubreddit(context.Background(), "law", "vaccine", "year", 0)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrTransport), "got %v", err)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRedditRequestsArePaced(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/r/law/search", func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(listingJSON("t3_next",
			`{"kind":"t3","data":{"id":"a","title":"Vaccine","created_utc":1}}`)))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rc := NewRedditClient(context.Background(),
		config.RedditConfig{ClientID: "id", ClientSecret: "secret"},
		RedditOptions{AuthURL: srv.URL + "/api/v1/access_token", APIURL: srv.URL, RequestsPerMinute: 1})

	// the second page would have to wait a minute
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	posts, err := rc.SearchSubreddit(ctx, "law", "vaccine", "year", 0)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, posts, 1)
}
