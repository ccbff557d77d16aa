package sentiment

import (
	"html"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/vaxpulse/internal/models"
)

// VADER_THRESHOLD splits the compound score into the three labels.
const VADER_THRESHOLD = 0.20

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

// Vader is the lexicon baseline written next to the LLM label for auditing.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the compound polarity of the plain text and its label.
func (v *Vader) Score(text string) (float64, models.Sentiment) {
	scores := v.analyzer.PolarityScores(PlainText(text))
	return scores.Compound, VaderLabel(scores.Compound)
}

func VaderLabel(compound float64) models.Sentiment {
	switch {
	case compound >= VADER_THRESHOLD:
		return models.SentimentPositive
	case compound <= -VADER_THRESHOLD:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // keep the anchor text
	return urlPattern.ReplaceAllString(input, "")
}

// PlainText renders reddit markdown and strips the resulting markup and links.
func PlainText(input string) string {
	rendered := blackfriday.Run([]byte(RemoveLinks(input)),
		blackfriday.WithNoExtensions(),
		// no smartypants, it rewrites the apostrophes the lexicon relies on
		blackfriday.WithRenderer(blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{})))
	stripped := html.UnescapeString(tagPattern.ReplaceAllString(string(rendered), " "))
	return strings.Join(strings.Fields(stripped), " ")
}
