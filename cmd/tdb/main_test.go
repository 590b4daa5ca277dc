package main

import (
	"testing"

	"github.com/Neumenon/tdb/internal/config"
)

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"--decimals=3", "-o", "out.tdb.zst", "--zstd", "--no-crc", "--sid=7", "--rate=0.5", "a.tdb", "-", "b.tdb"})
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	if opts.decimals == nil || *opts.decimals != 3 {
		t.Errorf("decimals = %v, want 3", opts.decimals)
	}
	if opts.output != "out.tdb.zst" {
		t.Errorf("output = %q", opts.output)
	}
	if !opts.compress || !opts.noCRC {
		t.Errorf("compress = %v, noCRC = %v", opts.compress, opts.noCRC)
	}
	if opts.rate != 0.5 {
		t.Errorf("rate = %v, want 0.5", opts.rate)
	}
	if opts.sid != 7 {
		t.Errorf("sid = %d, want 7", opts.sid)
	}
	if len(opts.files) != 3 || opts.files[1] != "-" {
		t.Errorf("files = %v", opts.files)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := [][]string{
		{"--decimals=x"},
		{"--workers=many"},
		{"--sid=-1"},
		{"--rate=fast"},
		{"-o"},
		{"--bogus"},
	}
	for _, args := range tests {
		if _, err := parseArgs(args); err == nil {
			t.Errorf("parseArgs(%v) succeeded, want error", args)
		}
	}
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	zero := 0
	cfg, err := loadConfig(options{decimals: &zero, compression: "gzip", workers: 2, noCRC: true, compress: true})
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Decimals != 0 || cfg.Compression != config.CompressionGzip || cfg.Workers != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Frame.CRC || !cfg.Frame.Compress {
		t.Errorf("Frame = %+v", cfg.Frame)
	}

	if _, err := loadConfig(options{compression: "lz4"}); err == nil {
		t.Error("expected error for unknown compression")
	}
}

func TestInputFile(t *testing.T) {
	if got := (options{}).inputFile(); got != "-" {
		t.Errorf("inputFile() = %q, want -", got)
	}
	if got := (options{files: []string{"x.tdb"}}).inputFile(); got != "x.tdb" {
		t.Errorf("inputFile() = %q, want x.tdb", got)
	}
}
