package archive

import (
	"errors"

	"github.com/wolfeidau/mapzip/internal/mapped"
	"github.com/wolfeidau/mapzip/internal/zipcrypto"
	"github.com/wolfeidau/mapzip/internal/zipview"
)

// Sentinel errors returned by the archive operations, matched with
// errors.Is. The internal packages own the conditions they detect; the
// aliases here keep the public surface in one place.
var (
	// ErrMap indicates the archive file could not be memory-mapped.
	ErrMap = mapped.ErrMap

	// ErrCorruptArchive indicates the central directory is malformed or
	// truncated.
	ErrCorruptArchive = zipview.ErrCorruptArchive

	// ErrInvalidEntryIndex indicates an entry ordinal outside the archive.
	ErrInvalidEntryIndex = zipview.ErrInvalidEntryIndex

	// ErrEntryNotFound indicates no entry carries the requested name.
	ErrEntryNotFound = zipview.ErrEntryNotFound

	// ErrMissingPassword indicates an encrypted entry was read without a
	// password.
	ErrMissingPassword = zipview.ErrMissingPassword

	// ErrUnsupportedMethod indicates a compression method this module does
	// not handle.
	ErrUnsupportedMethod = zipview.ErrUnsupportedMethod

	// ErrDecryption indicates the cipher's verification byte rejected the
	// password. A wrong password can also slip past the check (1 in 256)
	// and surface as garbage output or a codec error instead.
	ErrDecryption = zipcrypto.ErrPasswordMismatch

	// ErrOutputExists indicates the destination archive path already
	// exists. The builders never overwrite or merge; the caller removes
	// the file or picks another path.
	ErrOutputExists = errors.New("archive: output path already exists")

	// ErrNonUTF8Path indicates a relative path that cannot be stored as a
	// UTF-8 entry name.
	ErrNonUTF8Path = errors.New("archive: relative path is not valid UTF-8")

	// ErrInvalidEntryPath indicates an entry name that does not resolve to
	// a usable filesystem path.
	ErrInvalidEntryPath = errors.New("archive: entry name does not resolve to a valid path")
)
