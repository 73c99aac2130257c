package storage

import (
	"context"
	"fmt"

	"github.com/flipbook/service/internal/config"
)

// Driver names the storage backend.
type Driver string

const (
	DriverS3     Driver = "s3"
	DriverMinio  Driver = "minio"
	DriverGCS    Driver = "gcs"
	DriverMemory Driver = "memory"
)

const defaultListLimit = 1000

// New builds the Storage selected by cfg.Storage.Driver for cfg.BucketName.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	sc := cfg.Storage

	switch Driver(sc.Driver) {
	case DriverS3, "":
		return NewS3Storage(ctx, S3Config{
			Bucket:     cfg.BucketName,
			Region:     sc.Region,
			Endpoint:   sc.Endpoint,
			AccessKey:  sc.AccessKey,
			SecretKey:  sc.SecretKey,
			PublicBase: sc.PublicBase,
			ListLimit:  sc.ListLimit,
		})
	case DriverMinio:
		if sc.Endpoint == "" {
			return nil, fmt.Errorf("STORAGE_ENDPOINT is required for minio storage")
		}
		return NewMinioStorage(ctx, MinioConfig{
			Endpoint:   sc.Endpoint,
			AccessKey:  sc.AccessKey,
			SecretKey:  sc.SecretKey,
			Bucket:     cfg.BucketName,
			PublicBase: sc.PublicBase,
			UseSSL:     sc.UseSSL,
			ListLimit:  sc.ListLimit,
		})
	case DriverGCS:
		return NewGCSStorage(ctx, GCSConfig{
			Bucket:     cfg.BucketName,
			PublicBase: sc.PublicBase,
			ListLimit:  sc.ListLimit,
		})
	case DriverMemory:
		return NewMemoryStorage(cfg.BucketName, sc.PublicBase, sc.ListLimit), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", sc.Driver)
	}
}

func listLimitOrDefault(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
