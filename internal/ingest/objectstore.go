package ingest

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// Fetcher retrieves a raw uploaded document by object key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
	Type() string
}

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		useSSL: false,
	}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

type minioFetcher struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewMinioFetcher(opts ...MinioOpts) (*minioFetcher, error) {
	cfg := newConfig(opts...)

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &minioFetcher{cfg: cfg, client: minioClient}, nil
}

func (s *minioFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.cfg.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching object %q from bucket %q", key, s.cfg.bucket)
	}
	defer object.Close()

	objInfo, err := object.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "reading metadata of object %q", key)
	}

	content, err := io.ReadAll(object)
	if err != nil {
		return nil, errors.Wrapf(err, "reading object %q", key)
	}
	if int64(len(content)) != objInfo.Size {
		return nil, errors.Errorf("failed to fetch the entire object. expected bytes %d received %d", objInfo.Size, len(content))
	}

	return content, nil
}

func (s *minioFetcher) Type() string {
	return "minio"
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}
