package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
)

type ObjectInfo struct {
	Key          string  `json:"Key"`
	LastModified float64 `json:"LastModified"`
	Size         int64   `json:"Size"`
}

type FolderInfo struct {
	Folder string `json:"Folder"`
}

type BucketInfo struct {
	Name         string  `json:"Name"`
	CreationDate float64 `json:"CreationDate"`
}

// Listing is one level of a bucket under a prefix.
type Listing struct {
	Folders []FolderInfo `json:"folders"`
	Files   []ObjectInfo `json:"files"`
}

// ListObjects lists the folders and files directly under prefix.
func (s *Store) ListObjects(ctx context.Context, bucket, prefix string) (*Listing, error) {
	listing := &Listing{Folders: []FolderInfo{}, Files: []ObjectInfo{}}

	err := s.API.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, p := range page.CommonPrefixes {
			listing.Folders = append(listing.Folders, FolderInfo{Folder: aws.StringValue(p.Prefix)})
		}
		for _, o := range page.Contents {
			listing.Files = append(listing.Files, ObjectInfo{
				Key:          aws.StringValue(o.Key),
				LastModified: epochSeconds(o.LastModified),
				Size:         aws.Int64Value(o.Size),
			})
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, err)
	}
	return listing, nil
}

// ListKeys returns every object key under prefix, folders included.
func (s *Store) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	err := s.API.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, o := range page.Contents {
			keys = append(keys, aws.StringValue(o.Key))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, err)
	}
	return keys, nil
}

// FirstKey returns the first object key under prefix that is not a folder marker.
func (s *Store) FirstKey(ctx context.Context, bucket, prefix string) (string, error) {
	out, err := s.API.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, err)
	}
	for _, o := range out.Contents {
		if key := aws.StringValue(o.Key); !strings.HasSuffix(key, "/") {
			return key, nil
		}
	}
	return "", fmt.Errorf("no object under s3://%s/%s", bucket, prefix)
}

// ListBuckets lists every bucket of the account.
func (s *Store) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	out, err := s.API.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	buckets := make([]BucketInfo, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		buckets = append(buckets, BucketInfo{
			Name:         aws.StringValue(b.Name),
			CreationDate: epochSeconds(b.CreationDate),
		})
	}
	return buckets, nil
}

func epochSeconds(t *time.Time) float64 {
	if t == nil {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}
