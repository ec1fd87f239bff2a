// Package photos resolves billboard photo references to short-lived
// presigned URLs. Photos live in an S3-compatible bucket (MinIO in local
// stacks); cart items only carry the object key.
package photos

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// URLTTL is how long a presigned photo URL stays valid.
const URLTTL = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Options carries the bucket credentials and endpoint.
type Options struct {
	Region       string
	RootUser     string // MINIO_ROOT_USER
	RootPassword string // MINIO_ROOT_PASSWORD
	BaseEndpoint string
	Bucket       string
}

// Resolver turns photo object keys into presigned GET URLs.
type Resolver struct {
	opts Options
}

func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

func (r *Resolver) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(r.opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			r.opts.RootUser,
			r.opts.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(r.opts.BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// ResolveURL presigns a GET for the given photo key. An empty key resolves
// to an empty URL so callers can pass items without photos straight through.
func (r *Resolver) ResolveURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	presignClient, err := r.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := r.opts.Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(URLTTL))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
