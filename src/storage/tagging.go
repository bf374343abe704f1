package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
)

const (
	UserTag             = "L4EDemoAppUser"
	AssetDescriptionTag = "AssetDescription"
)

// Identity is who uploaded a dataset and what it describes, as recorded
// in the object's tags.
type Identity struct {
	UserUID          string
	AssetDescription string
}

// Tags returns the identity as object tags.
func (i Identity) Tags() map[string]string {
	return map[string]string{
		UserTag:             i.UserUID,
		AssetDescriptionTag: i.AssetDescription,
	}
}

// GetTags reads every tag of an object.
func (s *Store) GetTags(ctx context.Context, bucket, key string) (map[string]string, error) {
	out, err := s.API.GetObjectTaggingWithContext(ctx, &s3.GetObjectTaggingInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read tags of s3://%s/%s: %w", bucket, key, err)
	}

	tags := make(map[string]string, len(out.TagSet))
	for _, t := range out.TagSet {
		tags[aws.StringValue(t.Key)] = aws.StringValue(t.Value)
	}
	return tags, nil
}

// GetIdentity reads the uploader identity tags. Missing tags are empty.
func (s *Store) GetIdentity(ctx context.Context, bucket, key string) (Identity, error) {
	tags, err := s.GetTags(ctx, bucket, key)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		UserUID:          tags[UserTag],
		AssetDescription: tags[AssetDescriptionTag],
	}, nil
}

// PutTags replaces the tags of an object.
func (s *Store) PutTags(ctx context.Context, bucket, key string, tags map[string]string) error {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tagSet := make([]*s3.Tag, 0, len(keys))
	for _, k := range keys {
		tagSet = append(tagSet, &s3.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}

	_, err := s.API.PutObjectTaggingWithContext(ctx, &s3.PutObjectTaggingInput{
		Bucket:  aws.String(bucket),
		Key:     aws.String(key),
		Tagging: &s3.Tagging{TagSet: tagSet},
	})
	if err != nil {
		return fmt.Errorf("failed to tag s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
