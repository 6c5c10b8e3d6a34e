package repository

import (
	"context"
	"time"

	"joa_realtime/pkg/config"
	"joa_realtime/pkg/database"
)

// ObjectPresigner sign a temporary GET URL for one object
type ObjectPresigner interface {
	PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// ImageRepository resolve profile image refs to URLs
type ImageRepository struct {
	store        ObjectPresigner
	expiry       time.Duration
	defaultImage string
}

// NewImageRepository create image repository
func NewImageRepository(store ObjectPresigner, cfg config.ImageStoreConfig) *ImageRepository {
	return &ImageRepository{store: store, expiry: cfg.PresignExpiry, defaultImage: cfg.DefaultImage}
}

// NewImageStore minio backed presigner from the client config
func NewImageStore(cfg config.ImageStoreConfig) (*database.MinIOClient, error) {
	return database.NewMinioClient(database.MinIOConnection{
		Endpoint:   cfg.Endpoint,
		User:       cfg.AccessKey,
		Password:   cfg.SecretKey,
		BucketName: cfg.Bucket,
		Region:     cfg.Region,
		UseSSL:     cfg.UseSSL,
	})
}

// ResolveURL presigned URL of imageRef, the default image when empty
func (r *ImageRepository) ResolveURL(ctx context.Context, imageRef string) (string, error) {
	if imageRef == "" {
		imageRef = r.defaultImage
	}
	return r.store.PresignGetURL(ctx, imageRef, r.expiry)
}
