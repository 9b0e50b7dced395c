package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/xtxerr/smartbid/internal/config"
	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/storage/parquet"
	"github.com/xtxerr/smartbid/internal/storage/types"
)

// S3API is the subset of the S3 client used by the dataset.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3 stores partitions as objects under a bucket prefix.
type S3 struct {
	client S3API
	bucket string
	prefix string
	opts   parquet.Options
}

// NewS3 creates an S3 dataset using the default AWS credential chain.
func NewS3(ctx context.Context, cfg config.RemoteConfig, opts parquet.Options) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.NewMissingField("dataset.remote.bucket")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewS3WithClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket, cfg.Prefix, opts), nil
}

// NewS3WithClient creates an S3 dataset with a pre-configured client.
func NewS3WithClient(client S3API, bucket, prefix string, opts parquet.Options) *S3 {
	return &S3{
		client: client,
		bucket: bucket,
		prefix: prefix,
		opts:   opts,
	}
}

func (s *S3) objectKey(key string) string {
	return partitionPath(s.prefix, key)
}

// Location returns the s3:// URL of the partition.
func (s *S3) Location(key string) string {
	return "s3://" + s.bucket + "/" + s.objectKey(key)
}

// Exists checks the partition object with HeadObject.
func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: head %s: %w", errors.ErrStorageRead, s.objectKey(key), err)
}

// Write encodes rows to a temporary file and uploads it.
func (s *S3) Write(ctx context.Context, key string, rows []types.FeatureRow) error {
	tmp, err := os.CreateTemp("", "smartbid-*.parquet")
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageWrite, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := parquet.NewFeatureWriterTo(tmp, s.opts)
	if err := w.Write(rows); err != nil {
		w.Close()
		return fmt.Errorf("%w: %s: %v", errors.ErrStorageWrite, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrStorageWrite, key, err)
	}

	file, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageWrite, err)
	}
	defer file.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", errors.ErrStorageWrite, s.objectKey(key), err)
	}
	return nil
}

// Read downloads the partition to a temporary file and decodes it.
func (s *S3) Read(ctx context.Context, key string) ([]types.FeatureRow, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("partition %s: %w", key, errors.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: get %s: %w", errors.ErrStorageRead, s.objectKey(key), err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", "smartbid-*.parquet")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageRead, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: download %s: %v", errors.ErrStorageRead, key, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageRead, err)
	}

	rows, err := parquet.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrStorageRead, key, err)
	}
	return rows, nil
}

// List returns the keys of all partition objects under the prefix.
func (s *S3) List(ctx context.Context) ([]string, error) {
	listPrefix := strings.Trim(s.prefix, "/")
	if listPrefix != "" {
		listPrefix += "/"
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(listPrefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list objects: %w", errors.ErrStorageRead, err)
		}
		for _, obj := range page.Contents {
			if key, ok := keyFromPath(s.prefix, aws.ToString(obj.Key)); ok {
				keys = append(keys, key)
			}
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// isNotFound reports whether err is a missing key or 404 from S3.
func isNotFound(err error) bool {
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
