package analysis

import (
	"sort"
	"time"

	"github.com/spacesedan/vaxpulse/config"
	"github.com/spacesedan/vaxpulse/internal/models"
	"github.com/spacesedan/vaxpulse/internal/stats"
)

type Options struct {
	// Source is the dataset path printed in the report header.
	Source     string
	Window     config.Window
	Categories []string
}

type Share struct {
	Name    string
	N       int
	Percent float64
}

type GroupStats struct {
	Category  string
	Subreddit string
	stats.Summary
}

// Contingency counts labeled rows per category (rows) and label (columns).
// Only labels that occur are columns; missing labels are not counted.
type Contingency struct {
	Rows    []string
	Columns []models.Sentiment
	Counts  [][]float64
}

type Report struct {
	Source    string
	Window    config.Window
	Total     int
	FirstSeen time.Time
	LastSeen  time.Time

	Categories []Share
	Types      []Share
	Labels     []Share

	ByCategory  []GroupStats
	Compared    [2]string
	TTest       stats.TTest
	Contingency Contingency
	ChiSquare   stats.ChiSquare
	Pearson     stats.Correlation
	Spearman    stats.Correlation
	Subreddits  []GroupStats

	VaderCompared int
	VaderAgreed   int
}

// Analyze computes every report section from the labeled rows. It has no side
// effects; the same rows always give the same report.
func Analyze(items []models.LabeledItem, opts Options) Report {
	categories := opts.Categories
	if len(categories) == 0 {
		categories = distinctCategories(items)
	}

	r := Report{
		Source: opts.Source,
		Window: opts.Window,
		Total:  len(items),
	}
	r.FirstSeen, r.LastSeen = dateSpan(items)

	r.Categories = shares(items, categories, func(it models.LabeledItem) string { return it.Category })
	r.Types = shares(items, []string{models.ContentTypePost, models.ContentTypeComment},
		func(it models.LabeledItem) string { return it.Type })

	labelNames := make([]string, 0, len(models.SentimentOrder)+1)
	for _, s := range models.SentimentOrder {
		labelNames = append(labelNames, string(s))
	}
	labelNames = append(labelNames, string(models.SentimentMissing))
	r.Labels = shares(items, labelNames, func(it models.LabeledItem) string { return string(it.GeminiSentiment) })

	scores := scoresBy(items, func(it models.LabeledItem) string { return it.Category })
	for _, category := range categories {
		r.ByCategory = append(r.ByCategory, GroupStats{Category: category, Summary: stats.Describe(scores[category])})
	}

	if len(categories) >= 2 {
		r.Compared = [2]string{categories[0], categories[1]}
		r.TTest = stats.WelchTTest(scores[categories[0]], scores[categories[1]])
	} else {
		r.TTest = stats.WelchTTest(nil, nil)
	}

	r.Contingency = buildContingency(items, categories)
	r.ChiSquare = stats.ChiSquareTest(r.Contingency.Counts)

	sentiment := make([]float64, len(items))
	karma := make([]float64, len(items))
	for i, it := range items {
		sentiment[i] = float64(it.SentimentScore)
		karma[i] = float64(it.Score)
	}
	r.Pearson = stats.Pearson(sentiment, karma)
	r.Spearman = stats.Spearman(sentiment, karma)

	r.Subreddits = SubredditStats(items)

	for _, it := range items {
		if !it.GeminiSentiment.Valid() || !it.VaderLabel.Valid() {
			continue
		}
		r.VaderCompared++
		if it.GeminiSentiment == it.VaderLabel {
			r.VaderAgreed++
		}
	}

	return r
}

// SubredditStats summarizes each (category, subreddit) pair, ordered by
// category, then by descending count, then by name.
func SubredditStats(items []models.LabeledItem) []GroupStats {
	type key struct{ category, subreddit string }
	groups := make(map[key][]float64)
	for _, it := range items {
		k := key{it.Category, it.Subreddit}
		groups[k] = append(groups[k], float64(it.SentimentScore))
	}

	out := make([]GroupStats, 0, len(groups))
	for k, values := range groups {
		out = append(out, GroupStats{Category: k.category, Subreddit: k.subreddit, Summary: stats.Describe(values)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Subreddit < out[j].Subreddit
	})
	return out
}

// CategoryScores returns the sentiment scores of each category.
func CategoryScores(items []models.LabeledItem) map[string][]float64 {
	return scoresBy(items, func(it models.LabeledItem) string { return it.Category })
}

func scoresBy(items []models.LabeledItem, keyOf func(models.LabeledItem) string) map[string][]float64 {
	out := make(map[string][]float64)
	for _, it := range items {
		k := keyOf(it)
		out[k] = append(out[k], float64(it.SentimentScore))
	}
	return out
}

func shares(items []models.LabeledItem, names []string, keyOf func(models.LabeledItem) string) []Share {
	counts := make(map[string]int)
	for _, it := range items {
		counts[keyOf(it)]++
	}

	out := make([]Share, 0, len(names))
	for _, name := range names {
		s := Share{Name: name, N: counts[name]}
		if len(items) > 0 {
			s.Percent = float64(s.N) / float64(len(items)) * 100
		}
		out = append(out, s)
	}
	return out
}

func buildContingency(items []models.LabeledItem, categories []string) Contingency {
	present := make(map[models.Sentiment]bool)
	for _, it := range items {
		if it.GeminiSentiment.Valid() {
			present[it.GeminiSentiment] = true
		}
	}

	c := Contingency{Rows: categories}
	column := make(map[models.Sentiment]int)
	for _, s := range models.SentimentOrder {
		if present[s] {
			column[s] = len(c.Columns)
			c.Columns = append(c.Columns, s)
		}
	}

	row := make(map[string]int, len(categories))
	c.Counts = make([][]float64, len(categories))
	for i, category := range categories {
		row[category] = i
		c.Counts[i] = make([]float64, len(c.Columns))
	}

	for _, it := range items {
		i, ok := row[it.Category]
		if !ok || !it.GeminiSentiment.Valid() {
			continue
		}
		c.Counts[i][column[it.GeminiSentiment]]++
	}
	return c
}

func distinctCategories(items []models.LabeledItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	sort.Strings(out)
	return out
}

func dateSpan(items []models.LabeledItem) (time.Time, time.Time) {
	var first, last time.Time
	for i, it := range items {
		at := time.Unix(int64(it.CreatedUTC), 0).UTC()
		if i == 0 || at.Before(first) {
			first = at
		}
		if i == 0 || at.After(last) {
			last = at
		}
	}
	return first, last
}
