package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"go.uber.org/zap"

	"l4e-demo-pipeline/src/timeseries"
)

// Items converts every row of a table into an item, typing each cell with
// fieldTypes. Columns missing from fieldTypes are strings. Empty numeric
// cells are left out since DynamoDB rejects empty numbers.
func Items(table *timeseries.Table, fieldTypes timeseries.FieldTypes) []map[string]*dynamodb.AttributeValue {
	items := make([]map[string]*dynamodb.AttributeValue, 0, table.Len())
	for _, row := range table.Rows {
		item := make(map[string]*dynamodb.AttributeValue, len(table.Header))
		for i, h := range table.Header {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if fieldTypes[h] == timeseries.Number {
				if cell == "" {
					continue
				}
				item[h] = &dynamodb.AttributeValue{N: aws.String(cell)}
				continue
			}
			item[h] = &dynamodb.AttributeValue{S: aws.String(cell)}
		}
		items = append(items, item)
	}
	return items
}

// BatchWriteTable writes every row of a table, BatchSize items per request,
// resubmitting unprocessed items until they are all written.
func (s *Store) BatchWriteTable(ctx context.Context, tableName string, table *timeseries.Table, fieldTypes timeseries.FieldTypes) (int, error) {
	items := Items(table, fieldTypes)
	return len(items), s.BatchPut(ctx, tableName, items)
}

// BatchPut writes items in batches.
func (s *Store) BatchPut(ctx context.Context, tableName string, items []map[string]*dynamodb.AttributeValue) error {
	size := s.BatchSize
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}

	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))

		requests := make([]*dynamodb.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			requests = append(requests, &dynamodb.WriteRequest{PutRequest: &dynamodb.PutRequest{Item: item}})
		}

		if err := s.writeBatch(ctx, tableName, requests); err != nil {
			return fmt.Errorf("batch %d of %s (rows %d-%d): %w", start/size, tableName, start, end-1, err)
		}
	}
	return nil
}

func (s *Store) writeBatch(ctx context.Context, tableName string, requests []*dynamodb.WriteRequest) error {
	pending := map[string][]*dynamodb.WriteRequest{tableName: requests}

	for attempt := 0; ; attempt++ {
		out, err := s.API.BatchWriteItemWithContext(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("failed to write batch: %w", err)
		}

		unprocessed := out.UnprocessedItems[tableName]
		if len(unprocessed) == 0 {
			return nil
		}
		if attempt >= s.MaxRetries {
			return fmt.Errorf("%d items still unprocessed after %d retries", len(unprocessed), attempt)
		}

		s.Log.Warn("resubmitting unprocessed items",
			zap.String("table", tableName),
			zap.Int("unprocessed", len(unprocessed)),
			zap.Int("attempt", attempt+1),
		)
		pending = map[string][]*dynamodb.WriteRequest{tableName: unprocessed}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.Backoff << attempt):
		}
	}
}
