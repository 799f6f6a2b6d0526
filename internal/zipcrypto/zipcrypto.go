// Package zipcrypto implements the legacy PKWARE stream cipher used by the
// original ZIP encryption scheme. The cipher is cryptographically weak and its
// password check is probabilistic: a single verification byte means a wrong
// password is falsely accepted with probability 1 in 256, in which case
// decryption yields garbage rather than an error.
package zipcrypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// HeaderLen is the length of the encryption header prepended to every
// encrypted entry payload.
const HeaderLen = 12

const keyMultiplier = 134775813

// ErrPasswordMismatch indicates the verification byte rejected the password.
var ErrPasswordMismatch = errors.New("zipcrypto: password rejected by verification byte")

// keys is the three-register state of the cipher.
type keys struct {
	k0, k1, k2 uint32
}

func initKeys(password []byte) keys {
	k := keys{
		k0: 0x12345678,
		k1: 0x23456789,
		k2: 0x34567890,
	}
	for _, b := range password {
		k.update(b)
	}
	return k
}

func (k *keys) update(b byte) {
	k.k0 = crc32.IEEETable[(k.k0^uint32(b))&0xff] ^ (k.k0 >> 8)
	k.k1 = (k.k1 + (k.k0 & 0xff)) * keyMultiplier
	k.k1++
	k.k2 = crc32.IEEETable[(k.k2^uint32(byte(k.k1>>24)))&0xff] ^ (k.k2 >> 8)
}

func (k *keys) streamByte() byte {
	t := k.k2 | 2
	return byte((t * (t ^ 1)) >> 8)
}

func (k *keys) decrypt(buf []byte) {
	for i, c := range buf {
		b := c ^ k.streamByte()
		k.update(b)
		buf[i] = b
	}
}

func (k *keys) encrypt(buf []byte) {
	for i, b := range buf {
		c := b ^ k.streamByte()
		k.update(b)
		buf[i] = c
	}
}

// Reader decrypts a ZipCrypto stream in place as it is read.
type Reader struct {
	src  io.Reader
	keys keys
}

// NewReader consumes the 12-byte encryption header from src and verifies the
// password against its final byte. The expected value is the high byte of the
// entry CRC-32, or of the DOS modification time when bit 3 of flags is set
// (streamed entries carry no CRC in the local header). ErrPasswordMismatch is
// returned when the check fails; a false accept passes through undetected.
func NewReader(src io.Reader, password []byte, flags uint16, crc uint32, dosTime uint16) (*Reader, error) {
	r := &Reader{src: src, keys: initKeys(password)}

	header := make([]byte, HeaderLen)
	if _, err := io.ReadFull(src, header); err != nil {
		return nil, fmt.Errorf("failed to read encryption header: %w", err)
	}
	r.keys.decrypt(header)

	expect := byte(crc >> 24)
	if flags&0x8 != 0 {
		expect = byte(dosTime >> 8)
	}

	if header[HeaderLen-1] != expect {
		return nil, ErrPasswordMismatch
	}

	return r, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		r.keys.decrypt(p[:n])
	}
	return n, err
}

// Writer encrypts a ZipCrypto stream as it is written.
type Writer struct {
	dst  io.Writer
	keys keys
}

// NewWriter emits the 12-byte encryption header to dst, carrying verify as
// its final byte. Callers pass the high byte of the entry CRC-32, matching
// what NewReader checks on the way back in.
func NewWriter(dst io.Writer, password []byte, verify byte) (*Writer, error) {
	w := &Writer{dst: dst, keys: initKeys(password)}

	header := make([]byte, HeaderLen)
	if _, err := rand.Read(header[:HeaderLen-1]); err != nil {
		return nil, fmt.Errorf("failed to generate encryption header: %w", err)
	}
	header[HeaderLen-1] = verify
	w.keys.encrypt(header)

	if _, err := dst.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write encryption header: %w", err)
	}

	return w, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)
	w.keys.encrypt(buf)

	n, err := w.dst.Write(buf)
	if err != nil {
		return n, fmt.Errorf("failed to write encrypted data: %w", err)
	}
	return n, nil
}
