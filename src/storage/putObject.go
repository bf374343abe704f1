package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"

	"l4e-demo-pipeline/src/timeseries"
)

const csvContentType = "text/csv; charset=utf-8"

// PutObject uploads body, attaching tags when there are any.
func (s *Store) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string, tags map[string]string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if len(tags) > 0 {
		input.Tagging = aws.String(encodeTagging(tags))
	}

	if _, err := s.API.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// PutTable uploads a table as CSV.
func (s *Store) PutTable(ctx context.Context, bucket, key string, table *timeseries.Table, tags map[string]string) error {
	body, err := table.Bytes()
	if err != nil {
		return fmt.Errorf("render %s: %w", key, err)
	}
	return s.PutObject(ctx, bucket, key, body, csvContentType, tags)
}

// DeleteObject removes an object.
func (s *Store) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.API.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// maxDeleteBatch is the most keys a single DeleteObjects call accepts.
const maxDeleteBatch = 1000

// DeleteObjects removes keys in batches. Keys S3 refuses to delete are
// reported in the error.
func (s *Store) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))

		objects := make([]*s3.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, &s3.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := s.API.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects from s3://%s: %w", bucket, err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("failed to delete %d objects from s3://%s, first %s: %s",
				len(out.Errors), bucket, aws.StringValue(first.Key), aws.StringValue(first.Message))
		}
	}
	return nil
}

// CopyObject copies an object across buckets, granting the target bucket
// owner full control.
func (s *Store) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := s.API.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		ACL:        aws.String(s3.ObjectCannedACLBucketOwnerFullControl),
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(srcBucket + "/" + escapeKey(srcKey)),
	})
	if err != nil {
		return fmt.Errorf("failed to copy s3://%s/%s to s3://%s/%s: %w", srcBucket, srcKey, dstBucket, dstKey, err)
	}
	return nil
}

func encodeTagging(tags map[string]string) string {
	values := url.Values{}
	for k, v := range tags {
		values.Set(k, v)
	}
	return values.Encode()
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
