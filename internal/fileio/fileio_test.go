package fileio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Neumenon/tdb/internal/config"
	"github.com/Neumenon/tdb/tdb"
)

const sample = "[People name:str age:int score:real]\n<Alice> 30 1.5\n<Bob> ? !\n"

func TestCompressRoundTrip(t *testing.T) {
	for _, c := range []string{config.CompressionNone, config.CompressionGzip, config.CompressionZstd} {
		packed, err := Compress([]byte(sample), c)
		if err != nil {
			t.Fatalf("%s: Compress failed: %v", c, err)
		}
		if got := Detect(packed); got != c {
			t.Errorf("Detect = %q, want %q", got, c)
		}
		unpacked, err := Decompress(packed)
		if err != nil {
			t.Fatalf("%s: Decompress failed: %v", c, err)
		}
		if !bytes.Equal(unpacked, []byte(sample)) {
			t.Errorf("%s: got %q, want %q", c, unpacked, sample)
		}
	}

	if _, err := Compress([]byte(sample), "lz4"); err == nil {
		t.Error("expected error for unknown compression")
	}
}

func TestDecompress_SizeLimit(t *testing.T) {
	saved := MaxDecompressedSize
	MaxDecompressedSize = 1024
	defer func() { MaxDecompressedSize = saved }()

	big := bytes.Repeat([]byte("0"), 64*1024)
	for _, c := range []string{config.CompressionGzip, config.CompressionZstd} {
		packed, err := Compress(big, c)
		if err != nil {
			t.Fatalf("%s: Compress failed: %v", c, err)
		}
		if _, err := Decompress(packed); err == nil {
			t.Errorf("%s: expected error past the size limit", c)
		}

		small, err := Compress([]byte(sample), c)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Decompress(small); err != nil {
			t.Errorf("%s: input under the limit rejected: %v", c, err)
		}
	}
}

func TestCompressionFor(t *testing.T) {
	tests := []struct {
		path string
		def  string
		want string
	}{
		{"a.tdb", config.CompressionNone, config.CompressionNone},
		{"a.tdb", config.CompressionZstd, config.CompressionZstd},
		{"a.tdb.gz", config.CompressionNone, config.CompressionGzip},
		{"a.tdb.ZST", config.CompressionNone, config.CompressionZstd},
	}
	for _, tt := range tests {
		if got := CompressionFor(tt.path, tt.def); got != tt.want {
			t.Errorf("CompressionFor(%q, %q) = %q, want %q", tt.path, tt.def, got, tt.want)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	db, err := tdb.ParseString(sample)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	for _, name := range []string{"plain.tdb", "packed.tdb.gz", "packed.tdb.zst"} {
		path := filepath.Join(dir, name)
		if err := Save(path, db, 0, config.CompressionNone); err != nil {
			t.Fatalf("%s: Save failed: %v", name, err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("%s: Load failed: %v", name, err)
		}
		if !got.Equal(db) {
			t.Errorf("%s: loaded database differs", name)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "packed.tdb.gz"))
	if err != nil {
		t.Fatal(err)
	}
	if Detect(raw) != config.CompressionGzip {
		t.Error("packed.tdb.gz is not gzip")
	}
}

func TestLoad_ParseErrorWrapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tdb")
	if err := os.WriteFile(path, []byte("[T a:int]\n1 2 \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, tdb.ErrArity) {
		t.Errorf("expected ErrArity, got %v", err)
	}
}
