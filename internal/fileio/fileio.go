// Package fileio loads and saves whole TDB files, compressing with gzip or
// zstd when asked and decompressing transparently on read.
package fileio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/Neumenon/tdb/internal/config"
	"github.com/Neumenon/tdb/tdb"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// MaxDecompressedSize caps the decoded size of a compressed input (1 GiB).
var MaxDecompressedSize int64 = 1 << 30

// ErrTooLarge is returned when a compressed input decodes past
// MaxDecompressedSize.
var ErrTooLarge = errors.New("decompressed input too large")

// Detect reports the compression of data from its magic bytes.
func Detect(data []byte) string {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return config.CompressionGzip
	case bytes.HasPrefix(data, zstdMagic):
		return config.CompressionZstd
	default:
		return config.CompressionNone
	}
}

// CompressionFor picks a compression from a file extension, falling back
// to def.
func CompressionFor(path, def string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return config.CompressionGzip
	case ".zst", ".zstd":
		return config.CompressionZstd
	}
	return def
}

// Decompress returns data decoded according to its magic bytes.
func Decompress(data []byte) ([]byte, error) {
	switch Detect(data) {
	case config.CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(io.LimitReader(zr, MaxDecompressedSize+1))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if int64(len(out)) > MaxDecompressedSize {
			return nil, fmt.Errorf("gzip: %w (limit %d bytes)", ErrTooLarge, MaxDecompressedSize)
		}
		return out, nil

	case config.CompressionZstd:
		zr, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(MaxDecompressedSize)))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		out, err := zr.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		if int64(len(out)) > MaxDecompressedSize {
			return nil, fmt.Errorf("zstd: %w (limit %d bytes)", ErrTooLarge, MaxDecompressedSize)
		}
		return out, nil
	}
	return data, nil
}

// Compress encodes data with the named compression.
func Compress(data []byte, compression string) ([]byte, error) {
	switch compression {
	case config.CompressionNone, "":
		return data, nil

	case config.CompressionGzip:
		var buf bytes.Buffer
		zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return buf.Bytes(), nil

	case config.CompressionZstd:
		zw, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zw.Close()
		return zw.EncodeAll(data, nil), nil
	}
	return nil, fmt.Errorf("unknown compression %q", compression)
}

// ReadFile reads path, or stdin when path is "-", and decompresses it.
func ReadFile(path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return Decompress(data)
}

// Load reads and parses the TDB file at path.
func Load(path string) (*tdb.Database, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	db, err := tdb.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// Save writes db to path in canonical form. The compression is taken from
// the extension when it names one, otherwise from compression.
func Save(path string, db *tdb.Database, decimals int, compression string) error {
	text, err := tdb.Write(db, decimals)
	if err != nil {
		return err
	}
	data, err := Compress([]byte(text), CompressionFor(path, compression))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
