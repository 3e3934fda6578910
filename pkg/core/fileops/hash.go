package fileops

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	coreerrors "github.com/angelospk/subgrabber/pkg/core/errors"
)

const (
	// osdbHashChunkSize is the size of the chunk read from the start and end of the file.
	osdbHashChunkSize = 65536 // 64 * 1024
)

// Fingerprint identifies file content for OpenSubtitles lookups.
type Fingerprint struct {
	Hash uint64
	Size uint64
}

// HashString renders the hash as 16 lowercase, zero-padded hex digits.
func (f Fingerprint) HashString() string {
	return fmt.Sprintf("%016x", f.Hash)
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%s/%d", f.HashString(), f.Size)
}

// checksumBuffer calculates the sum of 64-bit little-endian integers in the buffer.
// A trailing group shorter than 8 bytes is ignored.
func checksumBuffer(buf []byte) (sum uint64) {
	for i := 0; i+8 <= len(buf); i += 8 {
		sum += binary.LittleEndian.Uint64(buf[i : i+8])
	}
	return
}

// CalculateOSDbHash calculates the OpenSubtitles movie hash of a file.
// Based on the algorithm described at: http://trac.opensubtitles.org/projects/opensubtitles/wiki/HashSourceCodes
//
// Files shorter than two chunks are accepted: the head and tail windows then
// overlap and the shared bytes are counted twice, as every other implementation does.
func CalculateOSDbHash(filePath string) (Fingerprint, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: open '%s' for OSDb hashing: %w", coreerrors.ErrIO, filePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: stat '%s': %w", coreerrors.ErrIO, filePath, err)
	}
	size := stat.Size()

	window := int64(osdbHashChunkSize)
	if size < window {
		window = size
	}

	headBuf := make([]byte, window)
	if _, err := io.ReadFull(io.NewSectionReader(file, 0, window), headBuf); err != nil {
		return Fingerprint{}, fmt.Errorf("%w: read head chunk from '%s': %w", coreerrors.ErrIO, filePath, err)
	}

	tailBuf := make([]byte, window)
	if _, err := io.ReadFull(io.NewSectionReader(file, size-window, window), tailBuf); err != nil {
		return Fingerprint{}, fmt.Errorf("%w: read tail chunk from '%s': %w", coreerrors.ErrIO, filePath, err)
	}

	// uint64 overflow is part of the algorithm
	hash := uint64(size) + checksumBuffer(headBuf) + checksumBuffer(tailBuf)

	return Fingerprint{Hash: hash, Size: uint64(size)}, nil
}
