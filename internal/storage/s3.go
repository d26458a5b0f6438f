package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"

	"github.com/kupe-dashboard/analytics-engine/internal/config"
	"github.com/kupe-dashboard/analytics-engine/pkg/types"
)

// ExportStore keeps generated dashboard exports in S3-compatible storage and
// hands out presigned download URLs.
type ExportStore struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	logger   *zap.Logger
}

func NewExportStore(cfg *config.S3Config, logger *zap.Logger) (*ExportStore, error) {
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(!cfg.UseSSL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := s3.New(sess)
	uploader := s3manager.NewUploader(sess)

	// Ensure bucket exists
	_, err = client.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		// Try to create bucket
		_, err = client.CreateBucket(&s3.CreateBucketInput{
			Bucket: aws.String(cfg.Bucket),
		})
		if err != nil {
			logger.Warn("Failed to create bucket, it may already exist", zap.Error(err))
		}
	}

	return &ExportStore{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		logger:   logger,
	}, nil
}

// UploadExport stores an export under exports/<yyyy>/<mm>/<dd>/<id>.<format>
// and returns the object key.
func (s *ExportStore) UploadExport(ctx context.Context, exportID, format string, data []byte) (string, error) {
	now := time.Now()
	key := fmt.Sprintf("exports/%s/%s.%s", now.Format("2006/01/02"), exportID, format)

	result, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(format)),
		Metadata: map[string]*string{
			"export-id":    aws.String(exportID),
			"generated-at": aws.String(now.Format(time.RFC3339)),
			"format":       aws.String(format),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}

	s.logger.Info("export uploaded",
		zap.String("export_id", exportID),
		zap.String("location", result.Location),
		zap.String("key", key))

	return key, nil
}

// PresignedURL generates a time-limited download URL for an export.
func (s *ExportStore) PresignedURL(storagePath string, expiry time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storagePath),
	})

	url, err := req.Presign(expiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}

// CleanupOldExports deletes exports older than the retention period and
// returns how many objects were removed.
func (s *ExportStore) CleanupOldExports(ctx context.Context, retentionDays int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String("exports/"),
	}

	deleted := 0
	err := s.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				if obj.LastModified.Before(cutoff) {
					_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
						Bucket: aws.String(s.bucket),
						Key:    obj.Key,
					})
					if err != nil {
						s.logger.Error("failed to delete old export",
							zap.String("key", *obj.Key),
							zap.Error(err))
						continue
					}
					deleted++
				}
			}
			return true
		})
	if err != nil {
		return deleted, fmt.Errorf("failed to cleanup old exports: %w", err)
	}

	s.logger.Info("old exports cleaned up",
		zap.Int("count", deleted),
		zap.Int("retention_days", retentionDays))

	return deleted, nil
}

func contentType(format string) string {
	switch format {
	case types.FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case types.FormatCSV:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
