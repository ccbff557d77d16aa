package charts

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/spacesedan/vaxpulse/internal/models"
)

const (
	minPointSize   = 100.0
	pointSizeRange = 500.0
	equalPointSize = 300.0
)

// SubredditPoint is one lollipop: a subreddit's mean score and volume.
type SubredditPoint struct {
	Subreddit string
	Mean      float64
	Count     int
	Size      float64
}

// SubredditPoints groups one category's rows by subreddit, ordered by
// ascending count (ties by name), with marker sizes already scaled.
func SubredditPoints(items []models.LabeledItem, category string) []SubredditPoint {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, it := range items {
		if it.Category != category {
			continue
		}
		sums[it.Subreddit] += float64(it.SentimentScore)
		counts[it.Subreddit]++
	}

	points := make([]SubredditPoint, 0, len(counts))
	for sub, n := range counts {
		points = append(points, SubredditPoint{Subreddit: sub, Mean: sums[sub] / float64(n), Count: n})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Count != points[j].Count {
			return points[i].Count < points[j].Count
		}
		return points[i].Subreddit < points[j].Subreddit
	})

	counted := make([]int, len(points))
	for i, pt := range points {
		counted[i] = pt.Count
	}
	for i, size := range ScaleSizes(counted) {
		points[i].Size = size
	}
	return points
}

// ScaleSizes maps counts linearly onto [100, 600] marker areas. When every
// count is the same each point gets 300.
func ScaleSizes(counts []int) []float64 {
	sizes := make([]float64, len(counts))
	if len(counts) == 0 {
		return sizes
	}

	lo, hi := counts[0], counts[0]
	for _, c := range counts {
		lo, hi = min(lo, c), max(hi, c)
	}
	for i, c := range counts {
		if hi == lo {
			sizes[i] = equalPointSize
			continue
		}
		sizes[i] = minPointSize + pointSizeRange*float64(c-lo)/float64(hi-lo)
	}
	return sizes
}

// Lollipop plots each subreddit of category at its mean score, one row per
// subreddit ordered by volume.
func Lollipop(items []models.LabeledItem, category, hex, suffix string) (*plot.Plot, error) {
	p := newPlot(DisplayName(category)+" Subreddits: Sentiment vs. Volume"+suffix, "Mean Sentiment Score", "")
	points := SubredditPoints(items, category)

	axis, err := plotter.NewLine(plotter.XYs{{X: 0, Y: -0.5}, {X: 0, Y: float64(len(points)) - 0.5}})
	if err != nil {
		return nil, err
	}
	axis.Color = color.NRGBA{A: 0x80}
	axis.Width = vg.Points(0.8)
	p.Add(axis)

	xys := make(plotter.XYs, len(points))
	names := make([]string, len(points))
	annotations := plotter.XYLabels{XYs: make(plotter.XYs, len(points)), Labels: make([]string, len(points))}
	for i, pt := range points {
		y := float64(i)
		xys[i] = plotter.XY{X: pt.Mean, Y: y}
		names[i] = pt.Subreddit

		stem, err := plotter.NewLine(plotter.XYs{{X: 0, Y: y}, {X: pt.Mean, Y: y}})
		if err != nil {
			return nil, err
		}
		stem.Color = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0x66}
		p.Add(stem)

		offset := 0.05
		if pt.Mean < 0 {
			offset = -0.05
		}
		annotations.XYs[i] = plotter.XY{X: pt.Mean + offset, Y: y}
		annotations.Labels[i] = fmt.Sprintf("N=%d", pt.Count)
	}

	if len(points) > 0 {
		dots, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		fill := hexColor(hex, 0xe6)
		dots.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{
				Color:  fill,
				Shape:  draw.CircleGlyph{},
				Radius: vg.Points(math.Sqrt(points[i].Size / math.Pi)),
			}
		}
		p.Add(dots)

		labels, err := plotter.NewLabels(annotations)
		if err != nil {
			return nil, err
		}
		for i, pt := range points {
			labels.TextStyle[i].Font.Size = vg.Points(9)
			labels.TextStyle[i].YAlign = text.YCenter
			if pt.Mean < 0 {
				labels.TextStyle[i].XAlign = text.XRight
			}
		}
		p.Add(labels)
		p.NominalY(names...)
	}

	p.X.Min, p.X.Max = -1.15, 1.15
	return p, nil
}
