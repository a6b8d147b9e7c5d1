package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"syntagma/internal/config"
	"syntagma/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// SnapshotStore 条文快照归档
type SnapshotStore struct {
	client *minio.Client
	bucket string
}

// New 创建 MinIO 客户端并确保快照 Bucket 存在
func New(cfg *config.MinIOConfig) (*SnapshotStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.SnapshotBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.SnapshotBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.SnapshotBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.SnapshotBucket, err)
		}
		logger.Info("MinIO bucket created", zap.String("bucket", cfg.SnapshotBucket))
	}

	logger.Info("MinIO connected",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.SnapshotBucket),
	)

	return &SnapshotStore{client: client, bucket: cfg.SnapshotBucket}, nil
}

// SaveSnapshot 上传一份 JSON 快照
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot %s: %w", name, err)
	}
	logger.Info("Snapshot archived", zap.String("bucket", s.bucket), zap.String("object", name))
	return nil
}

// ListSnapshots 按对象名倒序（即时间倒序）列出前缀下的快照
func (s *SnapshotStore) ListSnapshots(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		names = append(names, obj.Key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// PresignedURL 生成快照的临时下载地址
func (s *SnapshotStore) PresignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, name, expiry, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}
	return u.String(), nil
}
