package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Service keeps objects in Amazon S3 (or compatible APIs).
type S3Service struct {
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

func NewS3Service(client *s3.Client) *S3Service {
	return &S3Service{
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
	}
}

// ConnectOptions selects the region, credentials profile and, for
// S3-compatible services, a custom endpoint.
type ConnectOptions struct {
	Region   string
	Profile  string
	Endpoint string
}

func (o ConnectOptions) loadOptions() []func(*awscfg.LoadOptions) error {
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(o.Region)}
	if o.Profile != "" {
		opts = append(opts, awscfg.WithSharedConfigProfile(o.Profile))
	}
	if o.Endpoint != "" {
		opts = append(opts, awscfg.WithBaseEndpoint(o.Endpoint))
	}
	return opts
}

// Connect resolves AWS credentials from the default chain and returns a
// service bound to the resulting client. Custom endpoints use path-style
// addressing, which MinIO and similar servers expect.
func Connect(ctx context.Context, opts ConnectOptions) (*S3Service, error) {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts.loadOptions()...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.Endpoint != ""
	})
	return NewS3Service(client), nil
}

func (s *S3Service) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

func (s *S3Service) Put(ctx context.Context, bucket, key string, data []byte) error {
	if bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	// the downloader issues ranged GETs, which some providers answer with a bare 404 code
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

var _ Service = (*S3Service)(nil)
