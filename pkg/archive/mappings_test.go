package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func mappingsByName(ms []mapping) map[string]string {
	out := make(map[string]string, len(ms))
	for _, m := range ms {
		out[m.name] = m.src
	}
	return out
}

func TestFolderMappings(t *testing.T) {
	assert := require.New(t)

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.txt":         "alpha",
		"sub/b.txt":     "beta",
		"sub/deep/c.md": "# gamma",
	})

	mappings, err := folderMappings(dir)
	assert.NoError(err)
	assert.Equal(map[string]string{
		"a.txt":         filepath.Join(dir, "a.txt"),
		"sub/b.txt":     filepath.Join(dir, "sub", "b.txt"),
		"sub/deep/c.md": filepath.Join(dir, "sub", "deep", "c.md"),
	}, mappingsByName(mappings))
}

func TestFolderMappingsSkipsNonRegularFiles(t *testing.T) {
	assert := require.New(t)

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"real.txt": "content"})

	assert.NoError(os.Symlink(filepath.Join(dir, "missing-target"), filepath.Join(dir, "dangling")))

	mappings, err := folderMappings(dir)
	assert.NoError(err)
	assert.Equal(map[string]string{
		"real.txt": filepath.Join(dir, "real.txt"),
	}, mappingsByName(mappings))
}

func TestFolderMappingsMissingRoot(t *testing.T) {
	assert := require.New(t)

	_, err := folderMappings(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(err)
}

func TestFolderMappingsNonUTF8Name(t *testing.T) {
	assert := require.New(t)

	dir := t.TempDir()
	name := string([]byte{0xff, 0xfe}) + ".txt"
	assert.NoError(os.WriteFile(filepath.Join(dir, name), []byte("junk"), 0o644))

	_, err := folderMappings(dir)
	assert.ErrorIs(err, ErrNonUTF8Path)
}

func TestFolderMappingsSymlinkCycle(t *testing.T) {
	assert := require.New(t)

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"sub/b.txt": "beta"})

	assert.NoError(os.Symlink(dir, filepath.Join(dir, "sub", "loop")))

	mappings, err := folderMappings(dir)
	assert.NoError(err)
	assert.Equal(map[string]string{
		"sub/b.txt": filepath.Join(dir, "sub", "b.txt"),
	}, mappingsByName(mappings))
}

func TestPathMappings(t *testing.T) {
	assert := require.New(t)

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"root.txt":        "Root",
		"sub/subfile.txt": "Subfile",
	})

	mappings, err := pathMappings([]string{
		filepath.Join(dir, "root.txt"),
		filepath.Join(dir, "sub"),
	})
	assert.NoError(err)
	assert.Equal(map[string]string{
		"root.txt":        filepath.Join(dir, "root.txt"),
		"sub/subfile.txt": filepath.Join(dir, "sub", "subfile.txt"),
	}, mappingsByName(mappings))
}

func TestPathMappingsSkipsMissing(t *testing.T) {
	assert := require.New(t)

	mappings, err := pathMappings([]string{filepath.Join(t.TempDir(), "missing.txt")})
	assert.NoError(err)
	assert.Empty(mappings)
}

func TestPathMappingsSymlinkCycle(t *testing.T) {
	assert := require.New(t)

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"top/file.txt": "data"})

	assert.NoError(os.Symlink(filepath.Join(dir, "top"), filepath.Join(dir, "top", "self")))

	mappings, err := pathMappings([]string{filepath.Join(dir, "top")})
	assert.NoError(err)
	assert.Equal(map[string]string{
		"top/file.txt": filepath.Join(dir, "top", "file.txt"),
	}, mappingsByName(mappings))
}

func TestPathMappingsRepeatedTarget(t *testing.T) {
	assert := require.New(t)

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"top/file.txt": "data"})

	alias := filepath.Join(dir, "alias")
	assert.NoError(os.Symlink(filepath.Join(dir, "top"), alias))

	mappings, err := pathMappings([]string{filepath.Join(dir, "top"), alias})
	assert.NoError(err)
	assert.Equal(map[string]string{
		"top/file.txt":   filepath.Join(dir, "top", "file.txt"),
		"alias/file.txt": filepath.Join(alias, "file.txt"),
	}, mappingsByName(mappings))
}

func TestResolveHomeDir(t *testing.T) {
	assert := require.New(t)

	homeDir, err := os.UserHomeDir()
	assert.NoError(err)

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "path with tilde prefix",
			path:     "~/documents/test.txt",
			expected: filepath.Join(homeDir, "documents/test.txt"),
		},
		{
			name:     "path without tilde",
			path:     "/absolute/path/test.txt",
			expected: "/absolute/path/test.txt",
		},
		{
			name:     "empty path",
			path:     "",
			expected: "",
		},
		{
			name:     "tilde only",
			path:     "~",
			expected: "~",
		},
		{
			name:     "relative path",
			path:     "./test.txt",
			expected: "./test.txt",
		},
		{
			name:     "path with multiple tildes",
			path:     "~/path/~/test.txt",
			expected: filepath.Join(homeDir, "path/~/test.txt"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ResolveHomeDir(tt.path)
			assert.NoError(err)
			assert.Equal(tt.expected, result)
		})
	}
}

func TestPathMappingsRejectsUnderivableName(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "dot", path: "."},
		{name: "dot dot", path: ".."},
		{name: "trailing dot", path: "sub/.."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := require.New(t)

			_, err := pathMappings([]string{tt.path})
			assert.ErrorIs(err, ErrInvalidEntryPath)
		})
	}
}
