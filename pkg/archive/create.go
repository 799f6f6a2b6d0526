package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"github.com/ulikunitz/xz"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfeidau/mapzip/internal/trace"
	"github.com/wolfeidau/mapzip/internal/zipcrypto"
	"github.com/wolfeidau/mapzip/internal/zipview"
)

// CreateFromFolder builds a new archive at outputZipPath containing every
// regular file beneath folderPath, stored under its path relative to
// folderPath so the nested structure is preserved. The destination must not
// already exist; ErrOutputExists is returned before anything is written.
func CreateFromFolder(ctx context.Context, outputZipPath, folderPath string, opts ...Option) error {
	ctx, span := trace.Start(ctx, "CreateFromFolder")
	defer span.End()

	mappings, err := folderMappings(folderPath)
	if err != nil {
		return err
	}

	return writeArchive(ctx, outputZipPath, mappings, newOptions(opts))
}

// CreateFromPaths builds a new archive at outputZipPath from an explicit list
// of files and directories, each stored beneath its own base name. The
// destination must not already exist; ErrOutputExists is returned before
// anything is written.
func CreateFromPaths(ctx context.Context, outputZipPath string, paths []string, opts ...Option) error {
	ctx, span := trace.Start(ctx, "CreateFromPaths")
	defer span.End()

	mappings, err := pathMappings(paths)
	if err != nil {
		return err
	}

	return writeArchive(ctx, outputZipPath, mappings, newOptions(opts))
}

func writeArchive(ctx context.Context, outputZipPath string, mappings []mapping, o options) error {
	_, span := trace.Start(ctx, "writeArchive")
	defer span.End()

	if err := checkMethod(o.method); err != nil {
		return err
	}

	out, err := os.OpenFile(outputZipPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrOutputExists, outputZipPath)
		}
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer out.Close()

	checksummer := NewChecksumSHA256(out)

	zw := zip.NewWriter(checksummer)
	registerCompressor(zw, o)

	start := time.Now()

	for _, m := range mappings {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := writeEntry(zw, m, o); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}

	stat, err := out.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat archive file: %w", err)
	}

	span.SetAttributes(
		attribute.String("sha256sum", checksummer.Sum()),
		attribute.Int64("size", stat.Size()),
		attribute.Int("entries", len(mappings)),
	)

	log.Info().
		Str("path", outputZipPath).
		Int64("size", stat.Size()).
		Str("sha256sum", checksummer.Sum()).
		Int("entries", len(mappings)).
		Dur("duration_ms", time.Since(start)).
		Msg("archive built")

	return nil
}

func checkMethod(method uint16) error {
	switch method {
	case MethodStore, MethodDeflate, MethodZstd, MethodXZ:
		return nil
	default:
		return fmt.Errorf("%w: method %d", ErrUnsupportedMethod, method)
	}
}

func registerCompressor(zw *zip.Writer, o options) {
	switch o.method {
	case MethodDeflate:
		zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
			fw, err := flate.NewWriter(w, o.level)
			if err != nil {
				return nil, err
			}
			return fw, nil
		})
	case MethodZstd:
		zw.RegisterCompressor(MethodZstd, zstd.ZipCompressor(zstdLevel(o.level)...))
	case MethodXZ:
		zw.RegisterCompressor(MethodXZ, func(w io.Writer) (io.WriteCloser, error) {
			xw, err := xz.NewWriter(w)
			if err != nil {
				return nil, err
			}
			return xw, nil
		})
	}
}

func zstdLevel(level int) []zstd.EOption {
	if level == flate.DefaultCompression {
		return nil
	}
	return []zstd.EOption{zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level))}
}

func writeEntry(zw *zip.Writer, m mapping, o options) error {
	in, err := os.Open(m.src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}

	hdr := &zip.FileHeader{
		Name:     m.name,
		Method:   o.method,
		Modified: fi.ModTime(),
	}
	if !o.modified.IsZero() {
		hdr.Modified = o.modified
	}

	if o.password != "" {
		return writeEncryptedEntry(zw, hdr, in, o)
	}

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", m.name, err)
	}

	n, err := io.Copy(w, in)
	if err != nil {
		return fmt.Errorf("failed to write entry %s: %w", m.name, err)
	}

	log.Debug().Str("name", m.name).Int64("size", n).Msg("entry written")

	return nil
}

// writeEncryptedEntry buffers the whole entry in memory: the encryption
// header carries a verification byte derived from the plaintext CRC-32,
// which is only known once the payload has been read in full.
func writeEncryptedEntry(zw *zip.Writer, hdr *zip.FileHeader, in io.Reader, o options) error {
	plain, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	compressed, err := compress(plain, o)
	if err != nil {
		return err
	}

	crc := crc32.ChecksumIEEE(plain)

	hdr.Flags |= zipview.FlagEncrypted
	hdr.CRC32 = crc
	hdr.UncompressedSize64 = uint64(len(plain))
	hdr.CompressedSize64 = uint64(zipcrypto.HeaderLen + len(compressed))

	w, err := zw.CreateRaw(hdr)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", hdr.Name, err)
	}

	cw, err := zipcrypto.NewWriter(w, []byte(o.password), byte(crc>>24))
	if err != nil {
		return err
	}

	if _, err := cw.Write(compressed); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", hdr.Name, err)
	}

	log.Debug().Str("name", hdr.Name).Int("size", len(plain)).Msg("encrypted entry written")

	return nil
}

func compress(plain []byte, o options) ([]byte, error) {
	switch o.method {
	case MethodStore:
		return plain, nil
	case MethodDeflate:
		buf := new(bytes.Buffer)
		fw, err := flate.NewWriter(buf, o.level)
		if err != nil {
			return nil, fmt.Errorf("failed to create deflate writer: %w", err)
		}
		if _, err := fw.Write(plain); err != nil {
			return nil, fmt.Errorf("failed to compress entry: %w", err)
		}
		if err := fw.Close(); err != nil {
			return nil, fmt.Errorf("failed to flush deflate writer: %w", err)
		}
		return buf.Bytes(), nil
	case MethodZstd:
		buf := new(bytes.Buffer)
		zw, err := zstd.NewWriter(buf, zstdLevel(o.level)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		if _, err := zw.Write(plain); err != nil {
			return nil, fmt.Errorf("failed to compress entry: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("failed to flush zstd writer: %w", err)
		}
		return buf.Bytes(), nil
	case MethodXZ:
		buf := new(bytes.Buffer)
		xw, err := xz.NewWriter(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		if _, err := xw.Write(plain); err != nil {
			return nil, fmt.Errorf("failed to compress entry: %w", err)
		}
		if err := xw.Close(); err != nil {
			return nil, fmt.Errorf("failed to flush xz writer: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: method %d", ErrUnsupportedMethod, o.method)
	}
}
