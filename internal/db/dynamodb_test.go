package db

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/vaxpulse/internal/models"
)

type fakeWriter struct {
	batches     [][]types.WriteRequest
	unprocessed int
	err         error
}

func (f *fakeWriter) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	batch := in.RequestItems["VaccineSentiment"]
	f.batches = append(f.batches, batch)

	out := &dynamodb.BatchWriteItemOutput{}
	if f.unprocessed > 0 {
		out.UnprocessedItems = map[string][]types.WriteRequest{"VaccineSentiment": batch[:f.unprocessed]}
	}
	return out, nil
}

func rows(n int) []models.LabeledItem {
	items := make([]models.LabeledItem, n)
	for i := range items {
		items[i] = models.NewLabeledItem(models.CollectedItem{
			Subreddit: "Welding",
			Category:  "blue_collar",
			Type:      models.ContentTypeComment,
			Text:      string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Score:     i,
		}, models.SentimentPositive)
	}
	return items
}

func TestExportBatchesOf25(t *testing.T) {
	writer := &fakeWriter{}

	res, err := NewArchive(writer, "VaccineSentiment").Export(context.Background(), rows(60))
	require.NoError(t, err)

	require.Len(t, writer.batches, 3)
	assert.Len(t, writer.batches[0], 25)
	assert.Len(t, writer.batches[1], 25)
	assert.Len(t, writer.batches[2], 10)
	assert.Equal(t, ExportResult{Written: 60}, res)
}

func TestExportReportsUnprocessed(t *testing.T) {
	writer := &fakeWriter{unprocessed: 2}

	res, err := NewArchive(writer, "VaccineSentiment").Export(context.Background(), rows(30))
	require.NoError(t, err)
	assert.Equal(t, ExportResult{Written: 26, Unprocessed: 4}, res)
}

func TestExportFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("throttled")}

	_, err := NewArchive(writer, "VaccineSentiment").Export(context.Background(), rows(3))
	require.Error(t, err)
}

func TestRecordKeyIsStable(t *testing.T) {
	item := rows(1)[0]
	other := item
	other.Score = 999
	other.GeminiSentiment = models.SentimentNegative

	assert.Equal(t, RecordKey(item), RecordKey(other))
	assert.Len(t, RecordKey(item), 64)

	other.Type = models.ContentTypePost
	assert.NotEqual(t, RecordKey(item), RecordKey(other))
}

func TestNewRecordOmitsMissingLabel(t *testing.T) {
	item := models.NewLabeledItem(models.CollectedItem{Subreddit: "law", Type: models.ContentTypePost, Text: "vaccine"}, models.SentimentMissing)

	writer := &fakeWriter{}
	_, err := NewArchive(writer, "VaccineSentiment").Export(context.Background(), []models.LabeledItem{item})
	require.NoError(t, err)

	stored := writer.batches[0][0].PutRequest.Item
	assert.NotContains(t, stored, "gemini_sentiment")
	assert.Equal(t, &types.AttributeValueMemberN{Value: "0"}, stored["sentiment_score"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: RecordKey(item)}, stored["id"])
}
