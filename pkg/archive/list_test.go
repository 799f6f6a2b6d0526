package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"b.txt":     "bravo",
		"a.txt":     "alpha!",
		"sub/c.txt": "charlie",
	})

	epoch := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	archivePath := filepath.Join(t.TempDir(), "test.zip")
	assert.NoError(CreateFromFolder(ctx, archivePath, src, WithModifiedEpoch(epoch)))

	entries, err := List(ctx, archivePath)
	assert.NoError(err)
	assert.Len(entries, 3)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
		assert.Equal(uint16(MethodDeflate), e.Method)
		assert.False(e.Encrypted)
		assert.True(e.Modified.Equal(epoch))
	}
	assert.Equal([]string{"a.txt", "b.txt", "sub/c.txt"}, names)

	assert.Equal(uint64(6), entries[0].UncompressedSize)
	assert.Equal(uint64(5), entries[1].UncompressedSize)
	assert.Equal(uint64(7), entries[2].UncompressedSize)
}

func TestListEncrypted(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	src := t.TempDir()
	writeTree(t, src, map[string]string{"secret.txt": "classified"})

	archivePath := filepath.Join(t.TempDir(), "test.zip")
	assert.NoError(CreateFromFolder(ctx, archivePath, src, WithPassword("hunter2")))

	// listing reads central directory metadata only, no password needed
	entries, err := List(ctx, archivePath)
	assert.NoError(err)
	assert.Len(entries, 1)
	assert.Equal("secret.txt", entries[0].Name)
	assert.True(entries[0].Encrypted)
	assert.Equal(uint64(10), entries[0].UncompressedSize)
}

func TestListMethod(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	src := t.TempDir()
	writeTree(t, src, map[string]string{"data.bin": "payload"})

	archivePath := filepath.Join(t.TempDir(), "test.zip")
	assert.NoError(CreateFromFolder(ctx, archivePath, src, WithMethod(MethodZstd)))

	entries, err := List(ctx, archivePath)
	assert.NoError(err)
	assert.Len(entries, 1)
	assert.Equal(uint16(MethodZstd), entries[0].Method)
}

func TestListCorruptArchive(t *testing.T) {
	assert := require.New(t)

	archivePath := filepath.Join(t.TempDir(), "junk.zip")
	assert.NoError(os.WriteFile(archivePath, []byte("not a zip"), 0o644))

	_, err := List(context.Background(), archivePath)
	assert.ErrorIs(err, ErrCorruptArchive)
}

func TestReadEntry(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"a.txt":     "alpha",
		"sub/c.txt": "charlie",
	})

	archivePath := filepath.Join(t.TempDir(), "test.zip")
	assert.NoError(CreateFromFolder(ctx, archivePath, src))

	data, err := ReadEntry(ctx, archivePath, "sub/c.txt")
	assert.NoError(err)
	assert.Equal([]byte("charlie"), data)

	_, err = ReadEntry(ctx, archivePath, "nope.txt")
	assert.ErrorIs(err, ErrEntryNotFound)
}

func TestReadEntryEncrypted(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	src := t.TempDir()
	writeTree(t, src, map[string]string{"secret.txt": "classified"})

	archivePath := filepath.Join(t.TempDir(), "test.zip")
	assert.NoError(CreateFromFolder(ctx, archivePath, src, WithPassword("hunter2")))

	data, err := ReadEntry(ctx, archivePath, "secret.txt", WithPassword("hunter2"))
	assert.NoError(err)
	assert.Equal([]byte("classified"), data)

	_, err = ReadEntry(ctx, archivePath, "secret.txt")
	assert.ErrorIs(err, ErrMissingPassword)
}
