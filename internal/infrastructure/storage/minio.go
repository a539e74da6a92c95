package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
	"github.com/johnquangdev/meeting-stats/internal/usecase/stats"
	"github.com/johnquangdev/meeting-stats/pkg/config"
)

// objectWriter is the subset of *minio.Client the archive needs
type objectWriter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// BaselineArchive uploads the statistics snapshot taken before each rollover
type BaselineArchive struct {
	client objectWriter
	bucket string
}

var _ stats.Archiver = (*BaselineArchive)(nil)

// NewBaselineArchive creates a MinIO client and makes sure the bucket exists
func NewBaselineArchive(ctx context.Context, cfg *config.StorageConfig) (*BaselineArchive, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &BaselineArchive{client: minioClient, bucket: cfg.BucketName}, nil
}

// BaselineDocument is the archived form of one rollover
type BaselineDocument struct {
	RolledOverAt time.Time       `json:"rolledOverAt"`
	Users        []BaselineEntry `json:"users"`
}

// BaselineEntry holds one user's counters at rollover time
type BaselineEntry struct {
	UserID           uuid.UUID              `json:"userId"`
	Live             entities.StatsSnapshot `json:"live"`
	PreviousBaseline entities.StatsSnapshot `json:"previousBaseline"`
}

// ObjectName returns the archive key for a rollover at t
func ObjectName(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("baselines/%s/%s.json", t.Format("2006-01"), t.Format("20060102T150405Z"))
}

// ArchiveBaselines implements stats.Archiver
func (a *BaselineArchive) ArchiveBaselines(ctx context.Context, at time.Time, rows []*entities.UserStatistics) error {
	doc := BaselineDocument{
		RolledOverAt: at.UTC(),
		Users:        make([]BaselineEntry, 0, len(rows)),
	}
	for _, row := range rows {
		doc.Users = append(doc.Users, BaselineEntry{
			UserID:           row.UserID,
			Live:             row.Live(),
			PreviousBaseline: row.LastMonthStats,
		})
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode baseline archive: %w", err)
	}

	_, err = a.client.PutObject(ctx, a.bucket, ObjectName(at), bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload baseline archive: %w", err)
	}

	return nil
}
