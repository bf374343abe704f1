package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"

	"l4e-demo-pipeline/src/timeseries"
)

// GetObject downloads a whole object.
func (s *Store) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	result, err := s.API.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}
	defer result.Body.Close()

	content, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return content, nil
}

// ReadSeries downloads and parses a raw sensor CSV.
func (s *Store) ReadSeries(ctx context.Context, bucket, key string) (*timeseries.Series, timeseries.Schema, error) {
	content, err := s.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, timeseries.Schema{}, err
	}
	series, schema, err := timeseries.ReadCSV(bytes.NewReader(content))
	if err != nil {
		return nil, timeseries.Schema{}, fmt.Errorf("s3://%s/%s: %w", bucket, key, err)
	}
	return series, schema, nil
}

// ReadTable downloads a CSV as string cells.
func (s *Store) ReadTable(ctx context.Context, bucket, key string) (*timeseries.Table, error) {
	content, err := s.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	table, err := timeseries.ReadTable(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, err)
	}
	return table, nil
}
