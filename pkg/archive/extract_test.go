package archive

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	kzip "github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	files := map[string]string{
		"a.txt":         "alpha",
		"empty.txt":     "",
		"bin.dat":       "\x00\x01\x02\xff\xfe",
		"sub/b.txt":     "beta",
		"sub/deep/c.md": "# gamma",
	}

	tests := []struct {
		name string
		opts []Option
	}{
		{name: "default concurrency"},
		{name: "single worker", opts: []Option{WithConcurrency(1)}},
		{name: "eight workers", opts: []Option{WithConcurrency(8)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := require.New(t)
			ctx := context.Background()

			src := t.TempDir()
			writeTree(t, src, files)

			archivePath := filepath.Join(t.TempDir(), "test.zip")
			assert.NoError(CreateFromFolder(ctx, archivePath, src))

			dest := t.TempDir()
			assert.NoError(Extract(ctx, archivePath, dest, tt.opts...))
			assert.Equal(files, readTree(t, dest))
		})
	}
}

func TestExtractOverwritesExisting(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	src := t.TempDir()
	writeTree(t, src, map[string]string{"file.txt": "fresh"})

	archivePath := filepath.Join(t.TempDir(), "test.zip")
	assert.NoError(CreateFromFolder(ctx, archivePath, src))

	dest := t.TempDir()
	writeTree(t, dest, map[string]string{"file.txt": "stale"})

	assert.NoError(Extract(ctx, archivePath, dest))
	assert.Equal(map[string]string{"file.txt": "fresh"}, readTree(t, dest))
}

func TestExtractDirectoryEntries(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	archivePath := filepath.Join(t.TempDir(), "test.zip")

	out, err := os.Create(archivePath)
	assert.NoError(err)

	zw := kzip.NewWriter(out)
	_, err = zw.Create("logs/")
	assert.NoError(err)
	w, err := zw.Create("readme.txt")
	assert.NoError(err)
	_, err = w.Write([]byte("hello"))
	assert.NoError(err)
	assert.NoError(zw.Close())
	assert.NoError(out.Close())

	dest := t.TempDir()
	assert.NoError(Extract(ctx, archivePath, dest))

	fi, err := os.Stat(filepath.Join(dest, "logs"))
	assert.NoError(err)
	assert.True(fi.IsDir())
	assert.Equal(map[string]string{"readme.txt": "hello"}, readTree(t, dest))
}

func TestExtractRejectsUnnamedEntry(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	archivePath := filepath.Join(t.TempDir(), "test.zip")

	out, err := os.Create(archivePath)
	assert.NoError(err)

	zw := kzip.NewWriter(out)
	_, err = zw.CreateRaw(&kzip.FileHeader{Name: "", Method: kzip.Store})
	assert.NoError(err)
	assert.NoError(zw.Close())
	assert.NoError(out.Close())

	err = Extract(ctx, archivePath, t.TempDir())
	assert.ErrorIs(err, ErrInvalidEntryPath)
}

func TestExtractEncrypted(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	files := map[string]string{
		"secret.txt":    "top secret payload",
		"sub/inner.txt": "inner",
	}

	src := t.TempDir()
	writeTree(t, src, files)

	archivePath := filepath.Join(t.TempDir(), "test.zip")
	assert.NoError(CreateFromFolder(ctx, archivePath, src, WithPassword("hunter2")))

	dest := t.TempDir()
	assert.NoError(Extract(ctx, archivePath, dest, WithPassword("hunter2")))
	assert.Equal(files, readTree(t, dest))

	err := Extract(ctx, archivePath, t.TempDir())
	assert.ErrorIs(err, ErrMissingPassword)
}

func TestExtractMissingArchive(t *testing.T) {
	assert := require.New(t)

	err := Extract(context.Background(), filepath.Join(t.TempDir(), "missing.zip"), t.TempDir())
	assert.ErrorIs(err, fs.ErrNotExist)
}

func TestExtractEmptyArchiveFile(t *testing.T) {
	assert := require.New(t)

	archivePath := filepath.Join(t.TempDir(), "empty.zip")
	assert.NoError(os.WriteFile(archivePath, nil, 0o644))

	err := Extract(context.Background(), archivePath, t.TempDir())
	assert.ErrorIs(err, ErrMap)
}

func TestExtractCancelledContext(t *testing.T) {
	assert := require.New(t)

	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"a.txt": "alpha",
		"b.txt": "beta",
	})

	archivePath := filepath.Join(t.TempDir(), "test.zip")
	assert.NoError(CreateFromFolder(context.Background(), archivePath, src))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Extract(ctx, archivePath, t.TempDir())
	assert.ErrorIs(err, context.Canceled)
}
