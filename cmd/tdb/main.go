// tdb - TDB format CLI tool
//
// Usage:
//
//	tdb fmt [options] [file]               Rewrite a TDB file in canonical form
//	tdb validate [options] file...         Parse files concurrently and report errors
//	tdb info [file]                        Summarize tables, rows and unknown values
//	tdb to-json [--indent] [file]          Convert TDB to JSON
//	tdb from-json [options] [file]         Convert JSON to canonical TDB
//	tdb hash [options] [file]              Print the SHA-256 state hash
//	tdb frame encode [options] file...     Wrap snapshots in TDB-S1 frames
//	tdb frame decode [file]                Decode TDB-S1 frames and print
//	tdb version                            Print version info
//
// If no file is given, reads from stdin. Compressed input (gzip, zstd) is
// detected automatically.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Neumenon/tdb/internal/config"
)

const (
	libVersion    = "0.1.0"
	formatVersion = "1"
)

// options holds the flags shared by all subcommands.
type options struct {
	configPath  string
	decimals    *int
	compression string
	workers     int
	output      string
	sid         uint64
	rate        float64
	indent      bool
	noCRC       bool
	compress    bool
	verbose     bool
	files       []string
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "version", "--version":
		fmt.Printf("tdb %s (format %s)\n", libVersion, formatVersion)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	if cmd == "frame" {
		if len(args) < 1 {
			fatal("frame: missing subcommand (encode, decode)")
		}
		cmd = "frame " + args[0]
		args = args[1:]
	}

	opts, err := parseArgs(args)
	if err != nil {
		fatal("%v", err)
	}
	setupLogging(opts.verbose)

	cfg, err := loadConfig(opts)
	if err != nil {
		fatal("%v", err)
	}
	slog.Debug("configuration", "decimals", cfg.Decimals, "compression", cfg.Compression,
		"workers", cfg.Workers, "frame_crc", cfg.Frame.CRC, "frame_compress", cfg.Frame.Compress,
		"frame_rate", cfg.Frame.Rate)

	switch cmd {
	case "fmt":
		cmdFmt(cfg, opts)
	case "validate":
		os.Exit(cmdValidate(cfg, opts.files))
	case "info":
		cmdInfo(opts)
	case "to-json":
		cmdToJSON(opts)
	case "from-json":
		cmdFromJSON(cfg, opts)
	case "hash":
		cmdHash(cfg, opts)
	case "frame encode":
		cmdFrameEncode(cfg, opts)
	case "frame decode":
		cmdFrameDecode(cfg, opts)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `tdb - TDB format CLI tool

Usage:
  tdb fmt [options] [file]               Rewrite a TDB file in canonical form
  tdb validate [options] file...         Parse files concurrently and report errors
  tdb info [file]                        Summarize tables, rows and unknown values
  tdb to-json [--indent] [file]          Convert TDB to JSON
  tdb from-json [options] [file]         Convert JSON to canonical TDB
  tdb hash [options] [file]              Print the SHA-256 state hash
  tdb frame encode [options] file...     Wrap snapshots in TDB-S1 frames
  tdb frame decode [file]                Decode TDB-S1 frames and print
  tdb version                            Print version info

Options:
  --config=PATH       YAML config file (default: $TDB_CONFIG)
  --decimals=N        Real precision, 0 for shortest round-trip form (0..15)
  --compress=NAME     Output compression for -o: none, gzip, zstd
  --workers=N         Concurrent files for validate
  -o PATH             Write output to PATH instead of stdout
  --indent            Pretty-print JSON
  --sid=N             Stream ID for frame encode (default: 1)
  --no-crc            Omit frame CRCs
  --zstd              Compress frame payloads
  --rate=N            Emit at most N frames per second (frame encode)
  -v                  Debug logging

If no file is given, reads from stdin.

Examples:
  printf '[People name:str age:int]\nAlice 30\n' | tdb fmt
  # Output:
  # [People name:str age:int]
  # <Alice> 30

  tdb fmt --decimals=2 -o data.tdb.zst data.tdb
  tdb validate --workers=8 testdata/*.tdb
  tdb frame encode v1.tdb v2.tdb | tdb frame decode
`)
}

// parseArgs splits flags from file arguments. Flags use --name=value form,
// except -o which takes the next argument.
func parseArgs(args []string) (options, error) {
	opts := options{sid: 1}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-v" || arg == "--verbose":
			opts.verbose = true
		case arg == "--indent":
			opts.indent = true
		case arg == "--no-crc":
			opts.noCRC = true
		case arg == "--zstd":
			opts.compress = true
		case arg == "-o":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("-o: missing path")
			}
			i++
			opts.output = args[i]
		case strings.HasPrefix(arg, "--config="):
			opts.configPath = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "--compress="):
			opts.compression = strings.TrimPrefix(arg, "--compress=")
		case strings.HasPrefix(arg, "--decimals="):
			n, err := parseIntArg(arg, "--decimals=")
			if err != nil {
				return opts, fmt.Errorf("--decimals: %w", err)
			}
			opts.decimals = &n
		case strings.HasPrefix(arg, "--workers="):
			n, err := parseIntArg(arg, "--workers=")
			if err != nil {
				return opts, fmt.Errorf("--workers: %w", err)
			}
			opts.workers = n
		case strings.HasPrefix(arg, "--sid="):
			sid, err := strconv.ParseUint(strings.TrimPrefix(arg, "--sid="), 10, 64)
			if err != nil {
				return opts, fmt.Errorf("--sid: %w", err)
			}
			opts.sid = sid
		case strings.HasPrefix(arg, "--rate="):
			r, err := strconv.ParseFloat(strings.TrimPrefix(arg, "--rate="), 64)
			if err != nil {
				return opts, fmt.Errorf("--rate: %w", err)
			}
			opts.rate = r
		case arg == "-":
			opts.files = append(opts.files, arg)
		case strings.HasPrefix(arg, "-"):
			return opts, fmt.Errorf("unknown option: %s", arg)
		default:
			opts.files = append(opts.files, arg)
		}
	}
	return opts, nil
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.decimals != nil {
		cfg.Decimals = *opts.decimals
	}
	if opts.compression != "" {
		cfg.Compression = opts.compression
	}
	if opts.workers != 0 {
		cfg.Workers = opts.workers
	}
	if opts.noCRC {
		cfg.Frame.CRC = false
	}
	if opts.compress {
		cfg.Frame.Compress = true
	}
	if opts.rate != 0 {
		cfg.Frame.Rate = opts.rate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// inputFile returns the single input path, "-" for stdin.
func (o options) inputFile() string {
	if len(o.files) == 0 {
		return "-"
	}
	return o.files[0]
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "tdb: "+format+"\n", args...)
	os.Exit(1)
}

// parseIntArg extracts an integer from a flag like "--decimals=2"
func parseIntArg(arg, prefix string) (int, error) {
	return strconv.Atoi(strings.TrimPrefix(arg, prefix))
}
