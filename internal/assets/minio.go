package assets

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"cineboard/internal/config"
	"cineboard/internal/media"
)

// MinIOSink uploads assets to an S3-compatible bucket and hands out presigned
// GET URLs.
type MinIOSink struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinIOSink connects to the configured endpoint and makes sure the bucket exists.
func NewMinIOSink(ctx context.Context, cfg config.Storage) (*MinIOSink, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("assets: minio client: %w", err)
	}
	sink := newMinIOSink(client, cfg.MinIOBucket, time.Duration(cfg.PresignHours)*time.Hour)
	if err := sink.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return sink, nil
}

func newMinIOSink(client *minio.Client, bucket string, expiry time.Duration) *MinIOSink {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &MinIOSink{client: client, bucket: bucket, expiry: expiry}
}

func (s *MinIOSink) Name() string { return config.StorageMinIO }

func (s *MinIOSink) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("assets: check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("assets: create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Store implements Sink.
func (s *MinIOSink) Store(ctx context.Context, ref Ref, asset media.Asset) (string, error) {
	if len(asset.Data) == 0 {
		return "", fmt.Errorf("assets: empty payload for scene %d", ref.Index)
	}
	key := objectKey(ref, asset.MIMEType)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(asset.Data), int64(len(asset.Data)), minio.PutObjectOptions{
		ContentType: mimeOrDefault(asset.MIMEType),
	})
	if err != nil {
		return "", fmt.Errorf("assets: upload %s: %w", key, err)
	}
	return s.presign(ctx, key)
}

func (s *MinIOSink) presign(ctx context.Context, key string) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("assets: presign %s: %w", key, err)
	}
	return presigned.String(), nil
}

// Purge implements Sink.
func (s *MinIOSink) Purge(ctx context.Context, storyboardID string) error {
	prefix := path.Join("storyboards", storyboardDir(storyboardID)) + "/"
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	for result := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		if result.Err != nil {
			return fmt.Errorf("assets: purge %s: %w", result.ObjectName, result.Err)
		}
	}
	return nil
}

func objectKey(ref Ref, mimeType string) string {
	return path.Join("storyboards", storyboardDir(ref.StoryboardID), objectName(ref, mimeType))
}
