package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
)

func TestMemoryBlobRepository_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBlobRepository()

	info, err := repo.Put(ctx, strings.NewReader("audio-bytes"), 11, entities.BlobMeta{
		OriginalName: "meeting.mp3",
		ContentType:  "audio/mpeg",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, info.FileID)
	assert.EqualValues(t, 11, info.FileSize)
	assert.Equal(t, "meeting.mp3", info.OriginalName)

	data, err := repo.Get(ctx, info.FileID)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))

	stat, err := repo.Stat(ctx, info.FileID)
	require.NoError(t, err)
	assert.Equal(t, *info, *stat)

	require.NoError(t, repo.Delete(ctx, info.FileID))
	require.NoError(t, repo.Delete(ctx, info.FileID), "delete is idempotent")

	_, err = repo.Get(ctx, info.FileID)
	assert.ErrorIs(t, err, entities.ErrNotFound)
	_, err = repo.Stat(ctx, info.FileID)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestMemoryBlobRepository_ShortUploadIsNotVisible(t *testing.T) {
	repo := NewMemoryBlobRepository()

	_, err := repo.Put(context.Background(), strings.NewReader("abc"), 10, entities.BlobMeta{})
	assert.Error(t, err)
	assert.Zero(t, repo.Len())
}

func TestMemoryBlobRepository_NewIDPerPut(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBlobRepository()

	a, err := repo.Put(ctx, strings.NewReader("x"), 1, entities.BlobMeta{})
	require.NoError(t, err)
	b, err := repo.Put(ctx, strings.NewReader("x"), 1, entities.BlobMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, a.FileID, b.FileID)
	assert.Equal(t, "application/octet-stream", a.ContentType)
}
