package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Neumenon/tdb/internal/config"
	"github.com/Neumenon/tdb/internal/fileio"
	"github.com/Neumenon/tdb/stream"
	"github.com/Neumenon/tdb/tdb"
)

func mustLoad(path string) *tdb.Database {
	db, err := fileio.Load(path)
	if err != nil {
		fatal("%v", err)
	}
	return db
}

// writeOutput writes db canonically to opts.output, or to stdout.
func writeOutput(cfg *config.Config, opts options, db *tdb.Database) {
	if opts.output != "" {
		if err := fileio.Save(opts.output, db, cfg.Decimals, cfg.Compression); err != nil {
			fatal("write %s: %v", opts.output, err)
		}
		slog.Debug("wrote file", "path", opts.output, "tables", db.Len())
		return
	}
	bw := bufio.NewWriter(os.Stdout)
	if err := tdb.Emit(bw, db, tdb.WriteOptions{Decimals: cfg.Decimals}); err != nil {
		fatal("%v", err)
	}
	if err := bw.Flush(); err != nil {
		fatal("write stdout: %v", err)
	}
}

// cmdFmt: TDB -> canonical TDB
func cmdFmt(cfg *config.Config, opts options) {
	writeOutput(cfg, opts, mustLoad(opts.inputFile()))
}

type validateResult struct {
	tables int
	rows   int
	err    error
}

// cmdValidate parses every file with at most cfg.Workers in flight and
// returns the process exit code.
func cmdValidate(cfg *config.Config, files []string) int {
	if len(files) == 0 {
		files = []string{"-"}
	}

	start := time.Now()
	results := make([]validateResult, len(files))

	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			db, err := fileio.Load(path)
			if err != nil {
				results[i].err = err
				return nil
			}
			results[i].tables = db.Len()
			for _, t := range db.Tables() {
				results[i].rows += t.Len()
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, path := range files {
		r := results[i]
		if r.err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", path, r.err)
			continue
		}
		fmt.Printf("ok   %s (%d tables, %d rows)\n", path, r.tables, r.rows)
	}
	slog.Debug("validate finished", "files", len(files), "failed", failed,
		"workers", cfg.Workers, "elapsed", time.Since(start))

	if failed > 0 {
		return 1
	}
	return 0
}

// cmdInfo prints one line per table with row and unknown-value counts.
func cmdInfo(opts options) {
	db := mustLoad(opts.inputFile())
	fmt.Printf("%d tables\n", db.Len())
	for _, t := range db.Tables() {
		missing, sentinels := 0, 0
		t.Rows(func(_ int, row tdb.Row) bool {
			for _, s := range row {
				switch {
				case s.IsMissing():
					missing++
				case s.IsSentinel():
					sentinels++
				}
			}
			return true
		})
		fmt.Printf("  %s [%s] rows=%d missing=%d sentinel=%d\n",
			t.Name(), t.Schema(), t.Len(), missing, sentinels)
	}
}

// cmdToJSON: TDB -> JSON
func cmdToJSON(opts options) {
	db := mustLoad(opts.inputFile())
	data, err := tdb.ToJSON(db, opts.indent)
	if err != nil {
		fatal("convert to JSON: %v", err)
	}
	fmt.Println(string(data))
}

// cmdFromJSON: JSON -> canonical TDB
func cmdFromJSON(cfg *config.Config, opts options) {
	data, err := fileio.ReadFile(opts.inputFile())
	if err != nil {
		fatal("read input: %v", err)
	}
	db, err := tdb.FromJSON(data)
	if err != nil {
		fatal("parse JSON: %v", err)
	}
	writeOutput(cfg, opts, db)
}

// cmdHash prints the state hash of the input at the configured precision.
func cmdHash(cfg *config.Config, opts options) {
	db := mustLoad(opts.inputFile())
	hash, err := stream.StateHash(db, cfg.Decimals)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("sha256:%s\n", stream.HashToHex(hash))
}

// cmdFrameEncode writes each input as a doc frame. Every frame after the
// first carries the previous snapshot's hash as base; the last is final.
// With a frame rate set, frames are paced and flushed one at a time.
func cmdFrameEncode(cfg *config.Config, opts options) {
	ctx := context.Background()
	files := opts.files
	if len(files) == 0 {
		files = []string{"-"}
	}

	var out io.Writer = os.Stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			fatal("create %s: %v", opts.output, err)
		}
		defer f.Close()
		out = f
	}
	bw := bufio.NewWriter(out)

	wopts := []stream.WriterOption{stream.WithDecimals(cfg.Decimals)}
	if cfg.Frame.CRC {
		wopts = append(wopts, stream.WithCRC())
	}
	if cfg.Frame.Compress {
		wopts = append(wopts, stream.WithCompression())
	}
	w := stream.NewWriter(bw, wopts...)

	var limiter *rate.Limiter
	if cfg.Frame.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Frame.Rate), 1)
	}

	var base *[32]byte
	for i, path := range files {
		db := mustLoad(path)
		seq := uint64(i + 1)

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				fatal("rate limit: %v", err)
			}
		}

		var err error
		if i == len(files)-1 {
			err = w.WriteFinal(opts.sid, seq, db, base)
		} else {
			err = w.WriteDatabase(opts.sid, seq, db, base)
		}
		if err != nil {
			fatal("write frame: %v", err)
		}

		hash, err := stream.StateHash(db, cfg.Decimals)
		if err != nil {
			fatal("%v", err)
		}
		base = &hash
		slog.Debug("framed snapshot", "path", path, "sid", opts.sid, "seq", seq)

		if limiter != nil {
			if err := bw.Flush(); err != nil {
				fatal("write output: %v", err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		fatal("write output: %v", err)
	}
}

// cmdFrameDecode reads frames, verifies sequence and base hashes, and
// prints each one.
func cmdFrameDecode(cfg *config.Config, opts options) {
	var input io.Reader = os.Stdin
	if path := opts.inputFile(); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			fatal("open file: %v", err)
		}
		defer f.Close()
		input = f
	}

	reader := stream.NewReader(input)
	handler := stream.NewFrameHandler()
	handler.Cursor.Decimals = cfg.Decimals
	handler.OnSeqGap = func(sid uint64, expected, got uint64) error {
		slog.Warn("sequence gap", "sid", sid, "expected", expected, "got", got)
		return nil
	}
	handler.OnDoc = func(sid, seq uint64, db *tdb.Database, state *stream.SIDState) error {
		rows := 0
		for _, t := range db.Tables() {
			rows += t.Len()
		}
		fmt.Printf("  doc: %d tables, %d rows\n", db.Len(), rows)
		if opts.verbose {
			text, err := tdb.Write(db, cfg.Decimals)
			if err != nil {
				return err
			}
			fmt.Print(text)
		}
		return nil
	}
	handler.OnErr = func(sid, seq uint64, msg string, state *stream.SIDState) error {
		fmt.Printf("  err: %s\n", msg)
		return nil
	}

	frameNum := 0
	for {
		frame, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fatal("frame %d: %v", frameNum+1, err)
		}

		frameNum++
		printFrame(frameNum, frame)
		if err := handler.Handle(frame); err != nil {
			fatal("frame %d: %v", frameNum, err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n--- %d frames decoded ---\n", frameNum)
}

func printFrame(n int, f *stream.Frame) {
	fmt.Printf("--- Frame %d ---\n", n)
	fmt.Printf("  sid=%d seq=%d kind=%s len=%d\n", f.SID, f.Seq, f.Kind, len(f.Payload))

	if f.CRC != nil {
		fmt.Printf("  crc=%08x\n", *f.CRC)
	}
	if f.Base != nil {
		fmt.Printf("  base=%s\n", stream.HashToHex(*f.Base))
	}
	if f.IsCompressed() {
		fmt.Printf("  compressed=zstd\n")
	}
	if f.Final {
		fmt.Printf("  final=true\n")
	}
}
