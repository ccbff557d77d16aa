// Package charts renders the study figures with gonum/plot. Every chart is
// rebuilt from the labeled rows on each run and saved under a fixed name.
package charts

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/spacesedan/vaxpulse/config"
	"github.com/spacesedan/vaxpulse/internal/models"
)

const (
	FILE_CATEGORY_COMPARISON = "fig_category_sentiment_comparison.png"
	FILE_STACKED_SENTIMENT   = "fig_sentiment_distribution_stacked.png"
	FILE_KARMA_BOXPLOT       = "fig_karma_vs_sentiment.png"
)

var (
	categoryPalette = []string{"#1f77b4", "#ff7f0e"}
	sentimentColors = map[models.Sentiment]string{
		models.SentimentPositive: "#2ecc71",
		models.SentimentNeutral:  "#95a5a6",
		models.SentimentNegative: "#e74c3c",
	}
)

type Options struct {
	Dir        string
	Categories []string
	// Window only affects titles; rows are expected to be filtered already.
	Window config.Window
}

type chart struct {
	file  string
	build func() (*plot.Plot, error)
	w, h  vg.Length
}

// Render writes every figure into opts.Dir and returns the written paths.
func Render(items []models.LabeledItem, opts Options) ([]string, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("[Charts] create output dir: %w", err)
	}

	categories := opts.Categories
	if len(categories) == 0 {
		categories = categoriesOf(items)
	}
	suffix := ""
	if !opts.Window.IsZero() {
		suffix = fmt.Sprintf(" (N=%d)", len(items))
	}

	charts := []chart{
		{FILE_CATEGORY_COMPARISON, func() (*plot.Plot, error) { return CategoryComparison(items, categories, suffix) }, 8 * vg.Inch, 6 * vg.Inch},
		{FILE_STACKED_SENTIMENT, func() (*plot.Plot, error) { return StackedDistribution(items, categories, suffix) }, 10 * vg.Inch, 6 * vg.Inch},
	}
	for i, category := range categories {
		hex := categoryPalette[i%len(categoryPalette)]
		charts = append(charts, chart{
			file:  LollipopFile(category),
			build: func() (*plot.Plot, error) { return Lollipop(items, category, hex, suffix) },
			w:     10 * vg.Inch,
			h:     7 * vg.Inch,
		})
	}
	charts = append(charts, chart{FILE_KARMA_BOXPLOT, func() (*plot.Plot, error) { return KarmaBoxPlot(items, suffix) }, 10 * vg.Inch, 6 * vg.Inch})

	written := make([]string, 0, len(charts))
	for _, c := range charts {
		p, err := c.build()
		if err != nil {
			return written, fmt.Errorf("[Charts] build %s: %w", c.file, err)
		}
		path := filepath.Join(opts.Dir, c.file)
		if err := p.Save(c.w, c.h, path); err != nil {
			return written, fmt.Errorf("[Charts] save %s: %w", path, err)
		}
		slog.Info("[Charts] Figure written", slog.String("path", path))
		written = append(written, path)
	}
	return written, nil
}

func LollipopFile(category string) string {
	return "fig_sentiment_" + category + "_lollipop.png"
}

// DisplayName turns "blue_collar" into "Blue Collar".
func DisplayName(category string) string {
	words := strings.Fields(strings.ReplaceAll(category, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// hexColor parses "#rrggbb" with the given opacity.
func hexColor(hex string, alpha uint8) color.NRGBA {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return color.NRGBA{A: alpha}
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: alpha}
}

func categoriesOf(items []models.LabeledItem) []string {
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

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}
