package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/internal/domain/repositories"
)

type memoryBlob struct {
	data []byte
	info entities.FileInfo
}

// MemoryBlobRepository keeps blobs in process memory
type MemoryBlobRepository struct {
	mu    sync.RWMutex
	blobs map[string]*memoryBlob
}

var _ repositories.BlobRepository = (*MemoryBlobRepository)(nil)

// NewMemoryBlobRepository creates an empty in-memory blob repository
func NewMemoryBlobRepository() *MemoryBlobRepository {
	return &MemoryBlobRepository{blobs: make(map[string]*memoryBlob)}
}

// Put reads the whole stream before publishing it under a new id
func (m *MemoryBlobRepository) Put(ctx context.Context, r io.Reader, size int64, meta entities.BlobMeta) (*entities.FileInfo, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if size >= 0 && int64(buf.Len()) != size {
		return nil, fmt.Errorf("short upload: got %d of %d bytes", buf.Len(), size)
	}

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	blob := &memoryBlob{
		data: buf.Bytes(),
		info: entities.FileInfo{
			FileID:       uuid.NewString(),
			OriginalName: meta.OriginalName,
			FileSize:     int64(buf.Len()),
			Duration:     meta.Duration,
			ContentType:  contentType,
			CreatedAt:    time.Now().UTC(),
		},
	}

	m.mu.Lock()
	m.blobs[blob.info.FileID] = blob
	m.mu.Unlock()

	info := blob.info
	return &info, nil
}

// Get returns a copy of the blob bytes
func (m *MemoryBlobRepository) Get(ctx context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blob, ok := m.blobs[id]
	if !ok {
		return nil, entities.ErrNotFound
	}
	return bytes.Clone(blob.data), nil
}

// Stat returns the stored file information
func (m *MemoryBlobRepository) Stat(ctx context.Context, id string) (*entities.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blob, ok := m.blobs[id]
	if !ok {
		return nil, entities.ErrNotFound
	}
	info := blob.info
	return &info, nil
}

// Delete removes a blob; missing ids are ignored
func (m *MemoryBlobRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, id)
	return nil
}

// Ping always succeeds
func (m *MemoryBlobRepository) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored blobs
func (m *MemoryBlobRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
