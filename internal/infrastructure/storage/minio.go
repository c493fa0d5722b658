package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/internal/domain/repositories"
	"github.com/johnquangdev/meetmemo/pkg/config"
)

// User metadata keys stored on every object
const (
	metaOriginalName = "Original-Name"
	metaDuration     = "Duration"
)

// MinIOBlobRepository stores blobs as objects in a single MinIO bucket
type MinIOBlobRepository struct {
	client *minio.Client
	bucket string
}

var _ repositories.BlobRepository = (*MinIOBlobRepository)(nil)

// NewMinIOBlobRepository creates a new MinIO client and makes sure the bucket exists
func NewMinIOBlobRepository(ctx context.Context, cfg *config.StorageConfig) (*MinIOBlobRepository, error) {
	// Initialize MinIO client
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	repo := &MinIOBlobRepository{
		client: minioClient,
		bucket: cfg.BucketName,
	}
	if err := repo.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}
	return repo, nil
}

// ensureBucket creates the bucket when missing
func (m *MinIOBlobRepository) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// Put uploads a blob under a fresh id. S3 semantics make the object visible
// only once the upload has completed.
func (m *MinIOBlobRepository) Put(ctx context.Context, r io.Reader, size int64, meta entities.BlobMeta) (*entities.FileInfo, error) {
	id := uuid.NewString()
	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := m.client.PutObject(ctx, m.bucket, id, r, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			metaOriginalName: url.QueryEscape(meta.OriginalName),
			metaDuration:     strconv.FormatFloat(meta.Duration, 'f', -1, 64),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to upload file: %w", entities.ErrStoreUnavailable, err)
	}

	return &entities.FileInfo{
		FileID:       id,
		OriginalName: meta.OriginalName,
		FileSize:     info.Size,
		Duration:     meta.Duration,
		ContentType:  contentType,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Get downloads the whole blob
func (m *MinIOBlobRepository) Get(ctx context.Context, id string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, blobError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, blobError(err)
	}
	return data, nil
}

// Stat returns the stored file information without downloading the blob
func (m *MinIOBlobRepository) Stat(ctx context.Context, id string) (*entities.FileInfo, error) {
	stat, err := m.client.StatObject(ctx, m.bucket, id, minio.StatObjectOptions{})
	if err != nil {
		return nil, blobError(err)
	}

	name := userMeta(stat.UserMetadata, metaOriginalName)
	if unescaped, err := url.QueryUnescape(name); err == nil {
		name = unescaped
	}
	duration, _ := strconv.ParseFloat(userMeta(stat.UserMetadata, metaDuration), 64)

	return &entities.FileInfo{
		FileID:       id,
		OriginalName: name,
		FileSize:     stat.Size,
		Duration:     duration,
		ContentType:  stat.ContentType,
		CreatedAt:    stat.LastModified.UTC(),
	}, nil
}

// Delete removes a blob; S3 treats a missing key as success
func (m *MinIOBlobRepository) Delete(ctx context.Context, id string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil
		}
		return fmt.Errorf("%w: failed to delete file: %w", entities.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks that the bucket is reachable
func (m *MinIOBlobRepository) Ping(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("%w: failed to check bucket: %w", entities.ErrStoreUnavailable, err)
	}
	if !exists {
		return fmt.Errorf("%w: bucket %s does not exist", entities.ErrStoreUnavailable, m.bucket)
	}
	return nil
}

func blobError(err error) error {
	if isNoSuchKey(err) {
		return entities.ErrNotFound
	}
	return fmt.Errorf("%w: %w", entities.ErrStoreUnavailable, err)
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}

// userMeta looks a key up case-insensitively; S3 gateways differ in header casing.
func userMeta(meta map[string]string, key string) string {
	for k, v := range meta {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
