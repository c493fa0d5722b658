package repositories

import (
	"context"
	"io"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
)

// BlobRepository stores uploaded audio and generated artifacts by id.
// Content under an id never changes; new content gets a new id.
type BlobRepository interface {
	// Put stores size bytes from r under a fresh id. A partially written blob
	// is never visible.
	Put(ctx context.Context, r io.Reader, size int64, meta entities.BlobMeta) (*entities.FileInfo, error)
	Get(ctx context.Context, id string) ([]byte, error)
	Stat(ctx context.Context, id string) (*entities.FileInfo, error)
	// Delete of a missing id is not an error.
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
