// Package storagetest provides an in-memory object store for handler tests.
package storagetest

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Modified is the LastModified time reported for every object.
var Modified = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// S3 keeps objects and their tags per "bucket/key". Calls outside the
// methods below panic through the nil embedded interface.
type S3 struct {
	s3iface.S3API

	mu      sync.Mutex
	Objects map[string][]byte
	Tags    map[string]map[string]string
	Buckets []string
	// Fail makes every call return this error.
	Fail error
}

func New() *S3 {
	return &S3{
		Objects: map[string][]byte{},
		Tags:    map[string]map[string]string{},
	}
}

func path(bucket, key string) string {
	return bucket + "/" + key
}

// Put stores an object directly.
func (f *S3) Put(bucket, key string, body []byte, tags map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Objects[path(bucket, key)] = body
	if tags != nil {
		f.Tags[path(bucket, key)] = tags
	}
}

// Get returns a stored object.
func (f *S3) Get(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.Objects[path(bucket, key)]
	return body, ok
}

func noSuchKey(bucket, key string) error {
	return awserr.New(s3.ErrCodeNoSuchKey, "no such key: "+path(bucket, key), nil)
}

func (f *S3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	body, ok := f.Get(aws.StringValue(in.Bucket), aws.StringValue(in.Key))
	if !ok {
		return nil, noSuchKey(aws.StringValue(in.Bucket), aws.StringValue(in.Key))
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *S3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	var body []byte
	if in.Body != nil {
		b, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, err
		}
		body = b
	}

	var tags map[string]string
	if in.Tagging != nil {
		values, err := url.ParseQuery(aws.StringValue(in.Tagging))
		if err != nil {
			return nil, err
		}
		tags = map[string]string{}
		for k := range values {
			tags[k] = values.Get(k)
		}
	}
	f.Put(aws.StringValue(in.Bucket), aws.StringValue(in.Key), body, tags)
	return &s3.PutObjectOutput{}, nil
}

func (f *S3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := path(aws.StringValue(in.Bucket), aws.StringValue(in.Key))
	delete(f.Objects, p)
	delete(f.Tags, p)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *S3) DeleteObjectsWithContext(_ aws.Context, in *s3.DeleteObjectsInput, _ ...request.Option) (*s3.DeleteObjectsOutput, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	bucket := aws.StringValue(in.Bucket)
	for _, o := range in.Delete.Objects {
		p := path(bucket, aws.StringValue(o.Key))
		delete(f.Objects, p)
		delete(f.Tags, p)
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (f *S3) CopyObjectWithContext(_ aws.Context, in *s3.CopyObjectInput, _ ...request.Option) (*s3.CopyObjectOutput, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	source, err := url.PathUnescape(aws.StringValue(in.CopySource))
	if err != nil {
		return nil, err
	}
	bucket, key, ok := strings.Cut(source, "/")
	if !ok {
		return nil, errors.New("invalid copy source " + source)
	}
	body, found := f.Get(bucket, key)
	if !found {
		return nil, noSuchKey(bucket, key)
	}
	f.Put(aws.StringValue(in.Bucket), aws.StringValue(in.Key), body, nil)
	return &s3.CopyObjectOutput{}, nil
}

func (f *S3) GetObjectTaggingWithContext(_ aws.Context, in *s3.GetObjectTaggingInput, _ ...request.Option) (*s3.GetObjectTaggingOutput, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := path(aws.StringValue(in.Bucket), aws.StringValue(in.Key))
	if _, ok := f.Objects[p]; !ok {
		return nil, noSuchKey(aws.StringValue(in.Bucket), aws.StringValue(in.Key))
	}

	keys := make([]string, 0, len(f.Tags[p]))
	for k := range f.Tags[p] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := &s3.GetObjectTaggingOutput{}
	for _, k := range keys {
		out.TagSet = append(out.TagSet, &s3.Tag{Key: aws.String(k), Value: aws.String(f.Tags[p][k])})
	}
	return out, nil
}

func (f *S3) PutObjectTaggingWithContext(_ aws.Context, in *s3.PutObjectTaggingInput, _ ...request.Option) (*s3.PutObjectTaggingOutput, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := path(aws.StringValue(in.Bucket), aws.StringValue(in.Key))
	if _, ok := f.Objects[p]; !ok {
		return nil, noSuchKey(aws.StringValue(in.Bucket), aws.StringValue(in.Key))
	}
	tags := map[string]string{}
	for _, t := range in.Tagging.TagSet {
		tags[aws.StringValue(t.Key)] = aws.StringValue(t.Value)
	}
	f.Tags[p] = tags
	return &s3.PutObjectTaggingOutput{}, nil
}

// keys lists the stored keys of a bucket in order.
func (f *S3) keys(bucket string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for p := range f.Objects {
		if b, key, _ := strings.Cut(p, "/"); b == bucket {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (f *S3) listV2(in *s3.ListObjectsV2Input) *s3.ListObjectsV2Output {
	prefix := aws.StringValue(in.Prefix)
	delimiter := aws.StringValue(in.Delimiter)
	out := &s3.ListObjectsV2Output{}
	seen := map[string]bool{}

	for _, key := range f.keys(aws.StringValue(in.Bucket)) {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if delimiter != "" {
			if i := strings.Index(key[len(prefix):], delimiter); i >= 0 {
				folder := key[:len(prefix)+i+len(delimiter)]
				if !seen[folder] {
					seen[folder] = true
					out.CommonPrefixes = append(out.CommonPrefixes, &s3.CommonPrefix{Prefix: aws.String(folder)})
				}
				continue
			}
		}
		body, _ := f.Get(aws.StringValue(in.Bucket), key)
		out.Contents = append(out.Contents, &s3.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(body))),
			LastModified: aws.Time(Modified),
		})
	}
	return out
}

func (f *S3) ListObjectsV2WithContext(_ aws.Context, in *s3.ListObjectsV2Input, _ ...request.Option) (*s3.ListObjectsV2Output, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	return f.listV2(in), nil
}

func (f *S3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	if f.Fail != nil {
		return f.Fail
	}
	fn(f.listV2(in), true)
	return nil
}

func (f *S3) ListBucketsWithContext(_ aws.Context, _ *s3.ListBucketsInput, _ ...request.Option) (*s3.ListBucketsOutput, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	out := &s3.ListBucketsOutput{}
	for _, b := range f.Buckets {
		out.Buckets = append(out.Buckets, &s3.Bucket{Name: aws.String(b), CreationDate: aws.Time(Modified)})
	}
	return out, nil
}
