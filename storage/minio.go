// Package storage keeps uploaded audio files in a MinIO bucket. The catalog
// core only ever sees the resulting audioUrl string.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"soundscape/config"
	"soundscape/logger"
)

// AudioStorage wraps a MinIO client for one bucket of audio objects.
type AudioStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewAudioStorage creates the client and ensures the bucket exists.
func NewAudioStorage(ctx context.Context, cfg *config.Config) (*AudioStorage, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	s := &AudioStorage{
		client:  client,
		bucket:  cfg.MinioBucket,
		baseURL: strings.TrimSuffix(cfg.AudioBaseURL, "/"),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("created audio bucket", logger.String("bucket", s.bucket))
	}
	return s, nil
}

// Put uploads an audio file under a unique object name and returns the
// public URL to store as the document's audioUrl.
func (s *AudioStorage) Put(ctx context.Context, reader io.Reader, size int64, filename string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	objectName := fmt.Sprintf("sounds/%s%s", uuid.New().String(), ext)

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload audio object: %w", err)
	}

	logger.Info("audio uploaded",
		logger.String("object", objectName),
		logger.Int64("size", size),
	)
	return s.baseURL + "/" + objectName, nil
}

// Remove deletes the object behind an audioUrl produced by Put. Unknown URLs
// (seeded sample paths, external references) are skipped.
func (s *AudioStorage) Remove(ctx context.Context, audioURL string) error {
	objectName, ok := s.objectName(audioURL)
	if !ok {
		return nil
	}
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove audio object: %w", err)
	}
	logger.Info("audio removed", logger.String("object", objectName))
	return nil
}

// Object serves the raw object for streaming through the HTTP layer.
func (s *AudioStorage) Object(ctx context.Context, objectName string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get audio object: %w", err)
	}
	return obj, nil
}

func (s *AudioStorage) objectName(audioURL string) (string, bool) {
	if !strings.HasPrefix(audioURL, s.baseURL+"/") {
		return "", false
	}
	return strings.TrimPrefix(audioURL, s.baseURL+"/"), true
}
