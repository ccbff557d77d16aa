package sentiment

import (
	"strings"

	"github.com/spacesedan/vaxpulse/internal/models"
)

const promptTemplate = `Analyze the sentiment of the following text, determining the text's opinion on COVID vaccinations, as to whether it has a positive sentiment towards COVID vaccines, a negative sentiment towards COVID vaccines, or a neutral sentiment towards COVID vaccines. Return only a single word: 'positive', 'neutral', or 'negative'.

Text: "{text}"
`

// BuildPrompt embeds the item text verbatim into the classification prompt.
func BuildPrompt(text string) string {
	return strings.Replace(promptTemplate, "{text}", text, 1)
}

// Normalize maps a model reply onto a label. Anything that is not exactly one
// of the three labels after trimming and lowercasing becomes neutral, so
// Normalize(string(Normalize(x))) == Normalize(x).
func Normalize(reply string) models.Sentiment {
	label := models.Sentiment(strings.ToLower(strings.TrimSpace(reply)))
	if label.Valid() {
		return label
	}
	return models.SentimentNeutral
}
