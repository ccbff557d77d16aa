package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/vaxpulse/internal/models"
	"github.com/spacesedan/vaxpulse/internal/utils"
)

// BatchWriter is the DynamoDB call the archive needs; *dynamodb.Client
// satisfies it.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Record is the stored form of a labeled row.
type Record struct {
	ID              string  `dynamodbav:"id"`
	Subreddit       string  `dynamodbav:"subreddit"`
	Category        string  `dynamodbav:"category"`
	Type            string  `dynamodbav:"type"`
	Text            string  `dynamodbav:"text"`
	Score           int     `dynamodbav:"score"`
	CreatedUTC      float64 `dynamodbav:"created_utc"`
	RedditID        string  `dynamodbav:"reddit_id,omitempty"`
	Keyword         string  `dynamodbav:"keyword,omitempty"`
	GeminiSentiment string  `dynamodbav:"gemini_sentiment,omitempty"`
	SentimentScore  int     `dynamodbav:"sentiment_score"`
	VaderCompound   float64 `dynamodbav:"vader_compound"`
	VaderLabel      string  `dynamodbav:"vader_label,omitempty"`
}

type Archive struct {
	client BatchWriter
	table  string
}

// ExportResult counts what DynamoDB accepted and what it handed back.
type ExportResult struct {
	Written     int
	Unprocessed int
}

func NewArchive(client BatchWriter, table string) *Archive {
	return &Archive{client: client, table: table}
}

// RecordKey is stable for a row: the same subreddit, type and text always
// give the same key.
func RecordKey(item models.LabeledItem) string {
	sum := sha256.Sum256([]byte(item.Subreddit + ":" + item.Type + ":" + item.Text))
	return hex.EncodeToString(sum[:])
}

func NewRecord(item models.LabeledItem) Record {
	return Record{
		ID:              RecordKey(item),
		Subreddit:       item.Subreddit,
		Category:        item.Category,
		Type:            item.Type,
		Text:            item.Text,
		Score:           item.Score,
		CreatedUTC:      item.CreatedUTC,
		RedditID:        item.ID,
		Keyword:         item.Keyword,
		GeminiSentiment: string(item.GeminiSentiment),
		SentimentScore:  item.SentimentScore,
		VaderCompound:   item.VaderCompound,
		VaderLabel:      string(item.VaderLabel),
	}
}

// Export writes items in batches of 25. Items DynamoDB leaves unprocessed are
// counted and logged, not retried.
func (a *Archive) Export(ctx context.Context, items []models.LabeledItem) (ExportResult, error) {
	var result ExportResult
	buffer := utils.NewBatchBuffer[types.WriteRequest](utils.DYNAMODB_BATCH_SIZE)

	for _, item := range items {
		av, err := attributevalue.MarshalMap(NewRecord(item))
		if err != nil {
			return result, fmt.Errorf("[DynamoDB] Failed to marshal record: %w", err)
		}
		full := buffer.Add(types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
		if !full {
			continue
		}
		if err := a.flush(ctx, buffer.GetAndClear(), &result); err != nil {
			return result, err
		}
	}
	if buffer.HasData() {
		if err := a.flush(ctx, buffer.GetAndClear(), &result); err != nil {
			return result, err
		}
	}

	if result.Unprocessed > 0 {
		slog.Error("[DynamoDB] Some records were not written",
			slog.String("table", a.table),
			slog.Int("unprocessed", result.Unprocessed))
	}
	slog.Info("[DynamoDB] Export finished",
		slog.String("table", a.table),
		slog.Int("written", result.Written))
	return result, nil
}

func (a *Archive) flush(ctx context.Context, batch []types.WriteRequest, result *ExportResult) error {
	if err := ctx.Err(); err != nil {
		slog.Warn("[DynamoDB] context canceled")
		return err
	}

	out, err := a.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{a.table: batch},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write records: %w", err)
	}

	unprocessed := len(out.UnprocessedItems[a.table])
	result.Unprocessed += unprocessed
	result.Written += len(batch) - unprocessed
	return nil
}
