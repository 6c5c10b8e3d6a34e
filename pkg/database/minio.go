package database

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"joa_realtime/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinIOClient definition minio client
type MinIOClient struct {
	Client     *minio.Client
	BucketName string
}

// NewMinIOConnection create a minio client and make sure the bucket exists, with retry
func NewMinIOConnection(ctx context.Context, d MinIOConnection) (*MinIOClient, error) {
	mc, err := NewMinioClient(d)
	if err != nil {
		return nil, err
	}

	for i := 1; i <= d.RetryCount; i++ {
		err = mc.EnsureBucket(ctx)
		if err == nil {
			logger.Log.Info("minIO connected", zap.String("endpoint", d.Endpoint), zap.Int("attempt", i))
			return mc, nil
		}

		logger.Log.Warn("minIO connect failed", zap.String("endpoint", d.Endpoint), zap.Int("attempt", i), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.RetryInterval):
		}
	}

	return nil, err
}

// NewMinioClient create a minio client, no request is sent until first use.
// With Region set presigning needs no round trip.
func NewMinioClient(d MinIOConnection) (*MinIOClient, error) {
	minioClient, err := minio.New(d.Endpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(d.User, d.Password, ""),
			Secure: d.UseSSL,
			Region: d.Region,
		})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 失敗: %w", err)
	}

	return &MinIOClient{
		Client:     minioClient,
		BucketName: d.BucketName,
	}, nil
}

// EnsureBucket create the bucket when it is missing
func (m *MinIOClient) EnsureBucket(ctx context.Context) error {
	// 檢查 bucket 是否存在
	exists, err := m.Client.BucketExists(ctx, m.BucketName)
	if err != nil {
		return fmt.Errorf("檢查 bucket [%s] 失敗: %w", m.BucketName, err)
	}
	if exists {
		logger.Log.Debug("bucket exists", zap.String("bucket", m.BucketName))
		return nil
	}

	if err = m.Client.MakeBucket(ctx, m.BucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("建立 bucket [%s] 失敗: %w", m.BucketName, err)
	}
	logger.Log.Info("bucket created", zap.String("bucket", m.BucketName))
	return nil
}

// PutObject upload one object from a reader, size -1 when unknown
func (m *MinIOClient) PutObject(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	_, err := m.Client.PutObject(ctx, m.BucketName, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// PresignGetURL 生成一個 Presigned URL 用來獲取指定的 object
func (m *MinIOClient) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	presignedURL, err := m.Client.PresignedGetObject(ctx, m.BucketName, objectName, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("生成 Presigned URL 失敗: %w", err)
	}
	return presignedURL.String(), nil
}
