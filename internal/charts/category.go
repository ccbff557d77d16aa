package charts

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/spacesedan/vaxpulse/internal/analysis"
	"github.com/spacesedan/vaxpulse/internal/models"
	"github.com/spacesedan/vaxpulse/internal/stats"
)

// labelThreshold is the smallest stacked segment, in percent, that gets a
// text label.
const labelThreshold = 5.0

type errorPoints struct {
	plotter.XYs
	plotter.YErrors
}

// CategoryComparison draws mean sentiment per category with 95% CI error bars.
func CategoryComparison(items []models.LabeledItem, categories []string, suffix string) (*plot.Plot, error) {
	p := newPlot("Mean Sentiment Score by Occupational Category"+suffix,
		"Occupational Category", "Mean Sentiment Score")

	scores := analysis.CategoryScores(items)
	names := make([]string, len(categories))

	var errs errorPoints
	valueLabels := plotter.XYLabels{}
	for i, category := range categories {
		names[i] = DisplayName(category)
		summary := stats.Describe(scores[category])
		mean := summary.Mean
		if math.IsNaN(mean) {
			mean = 0
		}

		bar, err := plotter.NewBarChart(plotter.Values{mean}, vg.Points(60))
		if err != nil {
			return nil, err
		}
		bar.XMin = float64(i)
		bar.Color = hexColor(categoryPalette[i%len(categoryPalette)], 0xff)
		bar.LineStyle.Width = vg.Points(1.5)
		p.Add(bar)

		top := mean
		if !math.IsNaN(summary.CILower) {
			errs.XYs = append(errs.XYs, plotter.XY{X: float64(i), Y: mean})
			errs.YErrors = append(errs.YErrors, struct{ Low, High float64 }{mean - summary.CILower, summary.CIUpper - mean})
			top = summary.CIUpper
		}
		if summary.N > 0 {
			valueLabels.XYs = append(valueLabels.XYs, plotter.XY{X: float64(i), Y: math.Min(top+0.05, 0.95)})
			valueLabels.Labels = append(valueLabels.Labels, fmt.Sprintf("M = %.3f", summary.Mean))
		}
	}

	if len(errs.XYs) > 0 {
		bars, err := plotter.NewYErrorBars(errs)
		if err != nil {
			return nil, err
		}
		bars.LineStyle.Width = vg.Points(2)
		bars.CapWidth = vg.Points(10)
		p.Add(bars)
	}

	zero, err := plotter.NewLine(plotter.XYs{{X: -0.5, Y: 0}, {X: float64(len(categories)) - 0.5, Y: 0}})
	if err != nil {
		return nil, err
	}
	zero.Color = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xb3}
	zero.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(zero)

	if len(valueLabels.XYs) > 0 {
		labels, err := plotter.NewLabels(valueLabels)
		if err != nil {
			return nil, err
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].XAlign = text.XCenter
		}
		p.Add(labels)
	}

	if len(names) > 0 {
		p.NominalX(names...)
	}
	p.Y.Min, p.Y.Max = -1, 1
	return p, nil
}

// Proportions returns, per category, the percentage of labeled rows carrying
// each label. Rows without a label are left out, so each category with any
// labeled rows sums to 100.
func Proportions(items []models.LabeledItem, categories []string) map[string]map[models.Sentiment]float64 {
	counts := make(map[string]map[models.Sentiment]int)
	totals := make(map[string]int)
	for _, it := range items {
		if !it.GeminiSentiment.Valid() {
			continue
		}
		if counts[it.Category] == nil {
			counts[it.Category] = make(map[models.Sentiment]int)
		}
		counts[it.Category][it.GeminiSentiment]++
		totals[it.Category]++
	}

	out := make(map[string]map[models.Sentiment]float64, len(categories))
	for _, category := range categories {
		out[category] = make(map[models.Sentiment]float64, len(models.SentimentOrder))
		for _, s := range models.SentimentOrder {
			if totals[category] > 0 {
				out[category][s] = float64(counts[category][s]) / float64(totals[category]) * 100
			} else {
				out[category][s] = 0
			}
		}
	}
	return out
}

// stackOrder is bottom to top.
var stackOrder = []models.Sentiment{models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative}

// StackedDistribution draws the label mix of each category as stacked bars.
func StackedDistribution(items []models.LabeledItem, categories []string, suffix string) (*plot.Plot, error) {
	p := newPlot("Sentiment Distribution by Category"+suffix, "Occupational Category", "Percentage (%)")
	props := Proportions(items, categories)

	names := make([]string, len(categories))
	for i, category := range categories {
		names[i] = DisplayName(category)
	}

	var below *plotter.BarChart
	segmentLabels := plotter.XYLabels{}
	base := make([]float64, len(categories))
	for _, s := range stackOrder {
		values := make(plotter.Values, len(categories))
		for i, category := range categories {
			values[i] = props[category][s]
		}

		bar, err := plotter.NewBarChart(values, vg.Points(80))
		if err != nil {
			return nil, err
		}
		bar.Color = hexColor(sentimentColors[s], 0xff)
		bar.LineStyle.Width = vg.Points(0.5)
		if below != nil {
			bar.StackOn(below)
		}
		p.Add(bar)
		p.Legend.Add(s.Title(), bar)
		below = bar

		for i, v := range values {
			if v > labelThreshold {
				segmentLabels.XYs = append(segmentLabels.XYs, plotter.XY{X: float64(i), Y: base[i] + v/2})
				segmentLabels.Labels = append(segmentLabels.Labels, fmt.Sprintf("%.1f%%", v))
			}
			base[i] += v
		}
	}

	if len(segmentLabels.XYs) > 0 {
		labels, err := plotter.NewLabels(segmentLabels)
		if err != nil {
			return nil, err
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].XAlign = text.XCenter
			labels.TextStyle[i].YAlign = text.YCenter
		}
		p.Add(labels)
	}

	p.Legend.Top = true
	p.Legend.TextStyle.Font.Size = vg.Points(10)
	if len(names) > 0 {
		p.NominalX(names...)
	}
	p.Y.Min, p.Y.Max = 0, 100
	return p, nil
}
