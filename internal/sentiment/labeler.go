package sentiment

import (
	"context"
	"log/slog"
	"time"

	"github.com/spacesedan/vaxpulse/internal/clients"
	"github.com/spacesedan/vaxpulse/internal/models"
	"github.com/spacesedan/vaxpulse/internal/utils"
)

const PROGRESS_EVERY = 50

// Classifier sends one prompt to a language model and returns its raw reply.
type Classifier interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Labeler struct {
	classifier Classifier
	vader      *Vader
	interval   time.Duration
}

// Summary is the label distribution of one labeling run.
type Summary struct {
	Total    int
	Positive int
	Neutral  int
	Negative int
	Missing  int
	// Compared counts rows where both the LLM and VADER produced a label.
	Compared int
	Agreed   int
}

func (s Summary) Agreement() float64 {
	if s.Compared == 0 {
		return 0
	}
	return float64(s.Agreed) / float64(s.Compared)
}

func (s *Summary) add(item models.LabeledItem) {
	s.Total++
	switch item.GeminiSentiment {
	case models.SentimentPositive:
		s.Positive++
	case models.SentimentNeutral:
		s.Neutral++
	case models.SentimentNegative:
		s.Negative++
	default:
		s.Missing++
		return
	}
	if item.VaderLabel.Valid() {
		s.Compared++
		if item.VaderLabel == item.GeminiSentiment {
			s.Agreed++
		}
	}
}

// NewLabeler returns a labeler that waits interval after every
// classification call. A non-positive interval disables pacing.
func NewLabeler(classifier Classifier, interval time.Duration) *Labeler {
	return &Labeler{
		classifier: classifier,
		vader:      NewVader(),
		interval:   interval,
	}
}

// Classify labels a single text. A transport or API failure is returned to the
// caller; an unusable reply is not an error and falls back to neutral.
func (l *Labeler) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	if err := ctx.Err(); err != nil {
		return models.SentimentMissing, err
	}
	reply, err := l.classifier.Generate(ctx, BuildPrompt(text))
	if err != nil {
		return models.SentimentMissing, err
	}
	return Normalize(reply), nil
}

// Label classifies items one at a time and returns them in input order. Failed
// calls leave the label missing; an authentication failure or cancellation
// stops the run and nothing is returned.
func (l *Labeler) Label(ctx context.Context, items []models.CollectedItem) ([]models.LabeledItem, Summary, error) {
	var summary Summary
	labeled := make([]models.LabeledItem, 0, len(items))

	for idx, item := range items {
		if idx%PROGRESS_EVERY == 0 {
			slog.Info("[Labeler] Processing",
				slog.Int("row", idx),
				slog.Int("total", len(items)))
		}

		label, err := l.Classify(ctx, item.Text)
		if err != nil {
			if clients.IsFatal(err) || ctx.Err() != nil {
				return nil, summary, err
			}
			slog.Warn("[Labeler] Classification failed, leaving label empty",
				slog.Int("row", idx),
				slog.String("kind", clients.KindOf(err)),
				slog.String("error", err.Error()))
		}

		if err := utils.Pause(ctx, l.interval); err != nil {
			return nil, summary, err
		}

		row := models.NewLabeledItem(item, label)
		row.VaderCompound, row.VaderLabel = l.vader.Score(item.Text)

		labeled = append(labeled, row)
		summary.add(row)
	}

	slog.Info("[Labeler] Sentiment distribution",
		slog.Int("positive", summary.Positive),
		slog.Int("neutral", summary.Neutral),
		slog.Int("negative", summary.Negative),
		slog.Int("missing", summary.Missing),
		slog.Float64("vader_agreement", summary.Agreement()))

	return labeled, summary, nil
}
