// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/tinyland-inc/tcfs/lib/clock"
	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

// S3Config configures an [S3Store] against a SeaweedFS-compatible or
// any other S3-compatible bucket.
type S3Config struct {
	Bucket    string
	Endpoint  string // custom endpoint; empty means real AWS
	Region    string
	PathStyle bool // SeaweedFS and most self-hosted gateways require this

	AccessKey    string
	SecretKey    string
	SessionToken string // optional

	// Logger receives structured diagnostics for retries and
	// transport failures. Defaults to slog.Default() if nil.
	Logger *slog.Logger

	// Clock is used for retry backoff sleeps. Defaults to
	// clock.Real() if nil.
	Clock clock.Clock
}

// S3Store implements [Store] against an S3-compatible object store,
// grounded on mrcawood-History_eXtended's S3Store wiring (endpoint
// resolver, static credentials, multipart-aware uploader/downloader).
type S3Store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	log        *slog.Logger
	clk        clock.Clock
}

// NewS3Store constructs an S3Store from cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		func(opts *config.LoadOptions) error {
			if cfg.Endpoint != "" {
				opts.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
					func(service, region string, options ...interface{}) (aws.Endpoint, error) {
						return aws.Endpoint{
							URL:               cfg.Endpoint,
							SigningRegion:     cfg.Region,
							HostnameImmutable: cfg.PathStyle,
						}, nil
					},
				)
			}
			if cfg.AccessKey != "" && cfg.SecretKey != "" {
				opts.Credentials = credentials.NewStaticCredentialsProvider(
					cfg.AccessKey, cfg.SecretKey, cfg.SessionToken,
				)
			}
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: loading aws config: %v", tcfserr.ErrConfig, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     cfg.Bucket,
		log:        logger,
		clk:        clk,
	}, nil
}

// Put uploads data under key, retrying transport errors per spec.md
// §4.3's retry policy.
func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	return withRetry(ctx, s.clk, func() error {
		_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		if err != nil {
			s.log.Warn("s3 put failed", "key", key, "error", err)
			return fmt.Errorf("%w: put %s: %v", tcfserr.ErrTransport, key, err)
		}
		return nil
	})
}

// Get downloads the bytes stored at key.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte

	err := withRetry(ctx, s.clk, func() error {
		resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: %s", tcfserr.ErrNotFound, key)
			}
			s.log.Warn("s3 get failed", "key", key, "error", err)
			return fmt.Errorf("%w: get %s: %v", tcfserr.ErrTransport, key, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: reading body for %s: %v", tcfserr.ErrTransport, key, err)
		}
		data = body
		return nil
	})

	return data, err
}

// Exists reports whether key is present via HeadObject.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	var found bool

	err := withRetry(ctx, s.clk, func() error {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isNotFound(err) {
				found = false
				return nil
			}
			return fmt.Errorf("%w: head %s: %v", tcfserr.ErrTransport, key, err)
		}
		found = true
		return nil
	})

	return found, err
}

// List returns every key under prefix, handling pagination.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var continuationToken *string

	for {
		var page *s3.ListObjectsV2Output

		err := withRetry(ctx, s.clk, func() error {
			resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(s.bucket),
				Prefix:            aws.String(prefix),
				ContinuationToken: continuationToken,
			})
			if err != nil {
				return fmt.Errorf("%w: list %s: %v", tcfserr.ErrTransport, prefix, err)
			}
			page = resp
			return nil
		})
		if err != nil {
			return nil, err
		}

		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}

		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		continuationToken = page.NextContinuationToken
	}

	return keys, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	// HeadObject returns a generic smithy API error with HTTP 404
	// status rather than a typed NoSuchKey/NotFound for some
	// S3-compatible gateways (including SeaweedFS); fall back to a
	// substring check on the error message.
	return strings.Contains(err.Error(), "StatusCode: 404") ||
		strings.Contains(strings.ToLower(err.Error()), "not found")
}
