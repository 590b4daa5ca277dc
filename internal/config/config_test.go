package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Decimals != 0 {
		t.Errorf("Decimals = %d, want 0", cfg.Decimals)
	}
	if cfg.Compression != CompressionNone {
		t.Errorf("Compression = %q, want none", cfg.Compression)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if !cfg.Frame.CRC || cfg.Frame.Compress {
		t.Errorf("Frame = %+v, want crc on, compress off", cfg.Frame)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte("decimals: 3\ncompression: zstd\nframe:\n  compress: true\n  rate: 2.5\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Decimals != 3 {
		t.Errorf("Decimals = %d, want 3", cfg.Decimals)
	}
	if cfg.Compression != CompressionZstd {
		t.Errorf("Compression = %q, want zstd", cfg.Compression)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want default 4", cfg.Workers)
	}
	if !cfg.Frame.CRC || !cfg.Frame.Compress || cfg.Frame.Rate != 2.5 {
		t.Errorf("Frame = %+v", cfg.Frame)
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		decimals int
		workers  int
	}{
		{"clamp high", "decimals: 40", false, 15, 4},
		{"clamp low", "decimals: -2", false, 0, 4},
		{"zero workers", "workers: 0", false, 0, 1},
		{"negative workers", "workers: -1", true, 0, 0},
		{"bad compression", "compression: lz4", true, 0, 0},
		{"negative rate", "frame:\n  rate: -1", true, 0, 0},
		{"bad yaml", "decimals: [", true, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.Decimals != tt.decimals {
				t.Errorf("Decimals = %d, want %d", cfg.Decimals, tt.decimals)
			}
			if cfg.Workers != tt.workers {
				t.Errorf("Workers = %d, want %d", cfg.Workers, tt.workers)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tdb.yaml")
	if err := os.WriteFile(path, []byte("workers: 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}

	t.Setenv(EnvVar, path)
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load from env failed: %v", err)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers from env = %d, want 8", cfg.Workers)
	}

	cfg, err = Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should yield defaults: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
}
