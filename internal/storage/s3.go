package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Storage implements Storage using AWS S3.
type S3Storage struct {
	client     *s3.Client
	bucket     string
	publicBase string
	listLimit  int
}

// S3Config holds configuration for S3Storage.
type S3Config struct {
	Bucket     string
	Region     string
	Endpoint   string // Optional custom endpoint (for MinIO, LocalStack, etc.)
	AccessKey  string // Optional; the default credential chain is used when empty
	SecretKey  string
	PublicBase string // Optional; defaults to https://{bucket}.s3.amazonaws.com
	ListLimit  int
}

// NewS3Storage creates a new S3-backed object store.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO/LocalStack
		}
	})

	return newS3Storage(client, cfg), nil
}

func newS3Storage(client *s3.Client, cfg S3Config) *S3Storage {
	publicBase := cfg.PublicBase
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
	}
	return &S3Storage{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		listLimit:  listLimitOrDefault(cfg.ListLimit),
	}
}

// Bucket returns the bucket name.
func (s *S3Storage) Bucket() string { return s.bucket }

// Upload writes the object in a single PutObject call.
func (s *S3Storage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   reader,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	_, err := s.client.PutObject(ctx, in)
	return wrap("upload", key, classifyS3(err), err)
}

// Download opens the object body.
func (s *S3Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrap("download", key, classifyS3(err), err)
	}
	return out.Body, nil
}

// List issues one ListObjectsV2 call. S3 already returns keys in ascending
// UTF-8 order; the sort keeps the contract explicit for S3-compatible services.
func (s *S3Storage) List(ctx context.Context, prefix string) ([]Object, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(int32(s.listLimit)),
	})
	if err != nil {
		return nil, wrap("list", prefix, classifyS3(err), err)
	}

	objs := make([]Object, 0, len(out.Contents))
	for _, c := range out.Contents {
		objs = append(objs, Object{
			Key:          aws.ToString(c.Key),
			Size:         aws.ToInt64(c.Size),
			LastModified: aws.ToTime(c.LastModified),
		})
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

// PublicURL returns https://{bucket}.s3.amazonaws.com/{key} unless a public base was configured.
func (s *S3Storage) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

func classifyS3(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var nsk *types.NoSuchKey
	var nsb *types.NoSuchBucket
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nsb) || errors.As(err, &nf) {
		return KindNotFound
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return KindNotFound
		}
	}
	return KindTransient
}
