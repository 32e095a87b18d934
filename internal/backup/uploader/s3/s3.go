// Package s3 implements the S3 Uploader, grounded on
// marmos91-dittofs/pkg/content/store/s3's retry classification adapted
// to the 5-kind taxonomy.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithy "github.com/aws/smithy-go"

	"github.com/obdsentry/obdsentryd/internal/classify"
)

// Uploader ships archives to an S3-compatible bucket. It uploads through
// the SDK's manager rather than a bare PutObject so a gzip stream of
// unknown length (size<0) can be shipped without a precomputed
// ContentLength — the manager buffers and multiparts as needed.
type Uploader struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// Config holds the S3 uploader's settings, sourced from
// config.S3Config.
type Config struct {
	Bucket          string
	Region          string
	Prefix          string
	AccessKeyID     string // empty defers to the SDK's default credential chain
	SecretAccessKey string
}

// New builds an Uploader. When AccessKeyID is empty the SDK's default
// credential chain (environment, shared config, instance role) applies.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}

	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, classify.New(classify.Configuration, fmt.Errorf("backup/uploader/s3: loading AWS config: %w", err))
	}

	client := s3.NewFromConfig(awsCfg)

	return &Uploader{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
	}, nil
}

// Upload ships r's contents under name. size is advisory only — the
// manager determines part sizes from the stream itself, so a gzip
// pipe's unknown length (size<0) uploads the same way a known-length
// file does.
func (u *Uploader) Upload(ctx context.Context, name string, r io.Reader, _ int64) (string, error) {
	key := name
	if u.prefix != "" {
		key = strings.TrimSuffix(u.prefix, "/") + "/" + name
	}

	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return "", classify.New(classifyErr(err), fmt.Errorf("backup/uploader/s3: uploading %s: %w", key, err))
	}

	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}

// classifyErr maps an AWS SDK error to the 5-kind taxonomy, adapted from
// marmos91-dittofs's isRetryableError: throttling and 5xx codes are
// Retryable, AccessDenied/Forbidden is Authentication, everything else
// unrecognized is System.
func classifyErr(err error) classify.Kind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return classify.Retryable
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "ThrottlingException", "RequestThrottled", "SlowDown",
			"ProvisionedThroughputExceededException", "InternalError", "ServiceUnavailable",
			"ServiceException", "InternalServiceException":
			return classify.Retryable
		case "AccessDenied", "Forbidden":
			return classify.Authentication
		}
	}

	return classify.System
}
