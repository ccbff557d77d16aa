package charts

import (
	"fmt"
	"image/color"
	"math/rand/v2"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/spacesedan/vaxpulse/internal/models"
)

const (
	jitterSeed  = 42
	jitterWidth = 0.3
)

// boxPalette approximates coolwarm at three stops.
var boxPalette = map[models.Sentiment]string{
	models.SentimentNegative: "#6788ee",
	models.SentimentNeutral:  "#dddddd",
	models.SentimentPositive: "#e26952",
}

// KarmaBoxPlot draws the karma distribution of each label on a symmetric log
// axis. Box outliers are hidden; every row appears in the jittered overlay.
func KarmaBoxPlot(items []models.LabeledItem, suffix string) (*plot.Plot, error) {
	p := newPlot("Distribution of Karma Scores by Sentiment"+suffix,
		"Sentiment Category", "Karma Score (SymLog Scale)")

	groups := make(map[models.Sentiment]plotter.Values)
	for _, it := range items {
		groups[it.GeminiSentiment] = append(groups[it.GeminiSentiment], float64(it.Score))
	}

	// fixed seed keeps the figure byte-stable between runs
	rng := rand.New(rand.NewPCG(jitterSeed, jitterSeed))
	var jitter plotter.XYs

	names := make([]string, len(models.SentimentOrder))
	for i, s := range models.SentimentOrder {
		values := groups[s]
		names[i] = fmt.Sprintf("%s (n=%d)", s.Title(), len(values))
		if len(values) == 0 {
			continue
		}

		box, err := plotter.NewBoxPlot(vg.Points(60), float64(i), values)
		if err != nil {
			return nil, err
		}
		box.FillColor = hexColor(boxPalette[s], 0xff)
		box.GlyphStyle.Radius = 0
		p.Add(box)

		for _, v := range values {
			jitter = append(jitter, plotter.XY{X: float64(i) + (rng.Float64()-0.5)*jitterWidth, Y: v})
		}
	}

	if len(jitter) > 0 {
		dots, err := plotter.NewScatter(jitter)
		if err != nil {
			return nil, err
		}
		dots.GlyphStyle = draw.GlyphStyle{
			Color:  color.NRGBA{A: 0x33},
			Shape:  draw.CircleGlyph{},
			Radius: vg.Points(1.5),
		}
		p.Add(dots)
	}

	p.NominalX(names...)
	p.Y.Scale = SymLog{LinThresh: 1}
	p.Y.Tick.Marker = SymLogTicks{}
	return p, nil
}
