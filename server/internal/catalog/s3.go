package catalog

import (
	"context"
	"fmt"
	"io"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/careguide/careguide/server/internal/config"
)

// maxObjectSize caps how much of an S3 dataset object is read.
const maxObjectSize = 16 << 20

// ObjectGetter is the subset of the S3 API used to fetch a dataset.
// *s3.Client satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// newObjectGetter is swapped in tests.
var newObjectGetter = func(ctx context.Context, cfg config.S3Config) (ObjectGetter, error) {
	return NewS3Client(ctx, cfg)
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// Endpoint and PathStyle support S3-compatible stores such as MinIO.
func NewS3Client(ctx context.Context, cfg config.S3Config, optFns ...func(*awsconfig.LoadOptions) error) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = config.DefaultS3Region
	}
	loadOpts := append([]func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}, optFns...)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// LoadS3 fetches s3://bucket/key once and parses it by the key's extension.
func LoadS3(ctx context.Context, getter ObjectGetter, bucket, key string) (*Catalog, error) {
	out, err := getter.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("catalog: read s3://%s/%s: %w", bucket, key, err)
	}
	if len(data) > maxObjectSize {
		return nil, fmt.Errorf("catalog: s3://%s/%s exceeds %d bytes", bucket, key, maxObjectSize)
	}
	return Parse(data, key)
}
