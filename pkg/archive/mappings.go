package archive

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog/log"
)

// mapping pairs a filesystem source path with the slash-separated relative
// name it will carry inside the archive.
type mapping struct {
	src  string
	name string
}

// folderMappings maps every regular file beneath root to its path relative
// to root. The walk is iterative over an explicit directory work list, so
// deeply nested trees cannot exhaust the goroutine stack, and symlinks are
// followed through os.Stat. Each resolved directory is expanded once, so a
// symlink cycle terminates instead of looping.
func folderMappings(root string) ([]mapping, error) {
	var out []mapping

	seen := make(map[string]struct{})
	dirs := []string{root}
	for len(dirs) > 0 {
		dir := dirs[len(dirs)-1]
		dirs = dirs[:len(dirs)-1]

		resolved, err := filepath.EvalSymlinks(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve directory: %w", err)
		}
		if _, ok := seen[resolved]; ok {
			log.Warn().Str("path", dir).Msg("directory already visited, skipping")
			continue
		}
		seen[resolved] = struct{}{}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory: %w", err)
		}

		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())

			info, err := os.Stat(full)
			if err != nil {
				if os.IsNotExist(err) {
					log.Warn().Str("path", full).Msg("path does not exist")
					continue
				}
				return nil, fmt.Errorf("failed to stat path: %w", err)
			}

			switch {
			case info.IsDir():
				dirs = append(dirs, full)
			case info.Mode().IsRegular():
				rel, err := filepath.Rel(root, full)
				if err != nil {
					return nil, fmt.Errorf("failed to get relative path: %w", err)
				}

				name := filepath.ToSlash(rel)
				if !utf8.ValidString(name) {
					return nil, fmt.Errorf("%w: %q", ErrNonUTF8Path, name)
				}

				out = append(out, mapping{src: full, name: name})
			}
		}
	}

	return out, nil
}

// pathMappings maps each top-level path to its own base name; a directory
// contributes its contents recursively beneath that base name, so sibling
// top-level entries can only collide on base name. Top-level paths that do
// not exist are skipped with a warning. Visited directories are tracked per
// top-level path, so a symlink cycle terminates while distinct arguments
// naming the same directory still each contribute.
func pathMappings(paths []string) ([]mapping, error) {
	type item struct {
		src  string
		name string
		seen map[string]struct{}
	}

	var stack []item
	for _, p := range paths {
		base := filepath.Base(filepath.Clean(p))
		if base == "." || base == ".." || base == string(filepath.Separator) {
			return nil, fmt.Errorf("%w: cannot derive an entry name from %q", ErrInvalidEntryPath, p)
		}
		stack = append(stack, item{src: p, name: base, seen: make(map[string]struct{})})
	}

	var out []mapping
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		info, err := os.Stat(it.src)
		if err != nil {
			if os.IsNotExist(err) {
				log.Warn().Str("path", it.src).Msg("path does not exist")
				continue
			}
			return nil, fmt.Errorf("failed to stat path: %w", err)
		}

		switch {
		case info.IsDir():
			resolved, err := filepath.EvalSymlinks(it.src)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve directory: %w", err)
			}
			if _, ok := it.seen[resolved]; ok {
				log.Warn().Str("path", it.src).Msg("directory already visited, skipping")
				continue
			}
			it.seen[resolved] = struct{}{}

			entries, err := os.ReadDir(it.src)
			if err != nil {
				return nil, fmt.Errorf("failed to read directory: %w", err)
			}

			for _, entry := range entries {
				stack = append(stack, item{
					src:  filepath.Join(it.src, entry.Name()),
					name: path.Join(it.name, entry.Name()),
					seen: it.seen,
				})
			}
		case info.Mode().IsRegular():
			if !utf8.ValidString(it.name) {
				return nil, fmt.Errorf("%w: %q", ErrNonUTF8Path, it.name)
			}

			out = append(out, mapping{src: it.src, name: it.name})
		}
	}

	return out, nil
}

// ResolveHomeDir expands a leading ~/ to the current user's home directory.
// Paths without the prefix, including a bare ~, pass through unchanged.
func ResolveHomeDir(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand home directory: %w", err)
	}

	return expanded, nil
}
