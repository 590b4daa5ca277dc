// bench - TDB benchmark runner
//
// Compares canonical TDB text against the JSON bridge encoding on synthetic
// databases:
//   - Bytes on wire, raw and gzip/zstd compressed
//   - Approximate token counts (using byte-based heuristics)
//   - Parse and write throughput
//
// Output: CSV and markdown summary
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/Neumenon/tdb/internal/config"
	"github.com/Neumenon/tdb/internal/fileio"
	"github.com/Neumenon/tdb/tdb"
)

type CaseResult struct {
	Name       string
	Rows       int
	TDBBytes   int
	JSONBytes  int
	BytesPct   float64
	TDBGzip    int
	JSONGzip   int
	TDBZstd    int
	JSONZstd   int
	TDBTokens  int
	JSONTokens int
	TokensPct  float64
	ParseMBps  float64
	WriteMBps  float64
}

type benchCase struct {
	name     string
	rows     int
	unknowns float64 // fraction of slots left Missing or Sentinel
}

var cases = []benchCase{
	{"people_small", 10, 0},
	{"people_medium", 1000, 0},
	{"people_large", 20000, 0},
	{"sparse_medium", 1000, 0.3},
	{"sparse_large", 20000, 0.3},
}

func main() {
	rng := rand.New(rand.NewSource(1808))

	fmt.Fprintf(os.Stderr, "TDB Benchmark Runner\n")
	fmt.Fprintf(os.Stderr, "====================\n")
	fmt.Fprintf(os.Stderr, "Cases: %d\n\n", len(cases))

	var results []CaseResult
	var totalTDB, totalJSON, totalTDBTok, totalJSONTok int

	for _, c := range cases {
		db := synthesize(rng, c)
		r, err := runCase(c, db)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", c.name, err)
			continue
		}
		results = append(results, r)
		totalTDB += r.TDBBytes
		totalJSON += r.JSONBytes
		totalTDBTok += r.TDBTokens
		totalJSONTok += r.JSONTokens
	}

	csvPath := "bench_results.csv"
	if csvFile, err := os.Create(csvPath); err == nil {
		writeCSV(csvFile, results)
		csvFile.Close()
		fmt.Fprintf(os.Stderr, "CSV written to: %s\n", csvPath)
	}

	mdPath := "BENCH.md"
	if mdFile, err := os.Create(mdPath); err == nil {
		writeMarkdown(mdFile, results, totalJSON, totalTDB, totalJSONTok, totalTDBTok)
		mdFile.Close()
		fmt.Fprintf(os.Stderr, "Markdown written to: %s\n", mdPath)
	}

	if totalJSON == 0 || totalJSONTok == 0 {
		return
	}
	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Cases:        %d\n", len(results))
	fmt.Printf("JSON total:   %d bytes, ~%d tokens\n", totalJSON, totalJSONTok)
	fmt.Printf("TDB total:    %d bytes, ~%d tokens\n", totalTDB, totalTDBTok)
	fmt.Printf("Bytes saved:  %d (%.1f%%)\n", totalJSON-totalTDB, pct(totalJSON-totalTDB, totalJSON))
	fmt.Printf("Tokens saved: %d (%.1f%%)\n", totalJSONTok-totalTDBTok, pct(totalJSONTok-totalTDBTok, totalJSONTok))
}

// synthesize builds a People/Events database with c.rows rows per table.
func synthesize(rng *rand.Rand, c benchCase) *tdb.Database {
	names := []string{"Alice", "Bob", "Carol", "Dan", "Eve", "Mallory <admin>", "Trent"}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	people := tdb.NewTable("People", tdb.MustSchema(
		tdb.Field{Name: "name", Kind: tdb.KindStr},
		tdb.Field{Name: "age", Kind: tdb.KindInt},
		tdb.Field{Name: "score", Kind: tdb.KindReal},
		tdb.Field{Name: "active", Kind: tdb.KindBool},
		tdb.Field{Name: "born", Kind: tdb.KindDate},
	))
	events := tdb.NewTable("Events", tdb.MustSchema(
		tdb.Field{Name: "at", Kind: tdb.KindDateTime},
		tdb.Field{Name: "who", Kind: tdb.KindStr},
		tdb.Field{Name: "payload", Kind: tdb.KindBytes},
	))

	slot := func(kind tdb.Kind, v tdb.Value) tdb.Slot {
		if rng.Float64() < c.unknowns {
			if rng.Intn(2) == 0 {
				return tdb.Missing()
			}
			return tdb.Sentinel(kind)
		}
		return tdb.Present(v)
	}

	for i := 0; i < c.rows; i++ {
		payload := make([]byte, 4+rng.Intn(12))
		rng.Read(payload)
		_ = people.Append(tdb.Row{
			slot(tdb.KindStr, tdb.Str(names[rng.Intn(len(names))])),
			slot(tdb.KindInt, tdb.Int(int64(18+rng.Intn(60)))),
			slot(tdb.KindReal, tdb.Real(rng.Float64()*100)),
			slot(tdb.KindBool, tdb.Bool(rng.Intn(2) == 0)),
			slot(tdb.KindDate, tdb.Date(start.AddDate(-rng.Intn(60), 0, -rng.Intn(365)))),
		})
		_ = events.Append(tdb.Row{
			slot(tdb.KindDateTime, tdb.DateTime(start.Add(time.Duration(i)*time.Minute))),
			slot(tdb.KindStr, tdb.Str(names[rng.Intn(len(names))])),
			slot(tdb.KindBytes, tdb.Bytes(payload)),
		})
	}

	db := tdb.NewDatabase()
	_ = db.Insert(people)
	_ = db.Insert(events)
	return db
}

func runCase(c benchCase, db *tdb.Database) (CaseResult, error) {
	writeStart := time.Now()
	text, err := tdb.Write(db, 2)
	if err != nil {
		return CaseResult{}, err
	}
	writeDur := time.Since(writeStart)

	parseStart := time.Now()
	if _, err := tdb.ParseString(text); err != nil {
		return CaseResult{}, err
	}
	parseDur := time.Since(parseStart)

	jsonData, err := tdb.ToJSON(db, false)
	if err != nil {
		return CaseResult{}, err
	}

	r := CaseResult{
		Name:       c.name,
		Rows:       c.rows,
		TDBBytes:   len(text),
		JSONBytes:  len(jsonData),
		TDBTokens:  estimateTokens(text),
		JSONTokens: estimateTokens(string(jsonData)),
		ParseMBps:  mbps(len(text), parseDur),
		WriteMBps:  mbps(len(text), writeDur),
	}
	r.BytesPct = pct(r.JSONBytes-r.TDBBytes, r.JSONBytes)
	r.TokensPct = pct(r.JSONTokens-r.TDBTokens, r.JSONTokens)

	sizes := []struct {
		data []byte
		algo string
		dst  *int
	}{
		{[]byte(text), config.CompressionGzip, &r.TDBGzip},
		{jsonData, config.CompressionGzip, &r.JSONGzip},
		{[]byte(text), config.CompressionZstd, &r.TDBZstd},
		{jsonData, config.CompressionZstd, &r.JSONZstd},
	}
	for _, s := range sizes {
		packed, err := fileio.Compress(s.data, s.algo)
		if err != nil {
			return CaseResult{}, err
		}
		*s.dst = len(packed)
	}
	return r, nil
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100.0
}

func mbps(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / (1 << 20) / d.Seconds()
}

// estimateTokens provides a rough token count approximation
// Based on cl100k_base behavior: ~4 chars per token for ASCII,
// punctuation and special chars often get their own tokens
func estimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}

	tokens := 0
	i := 0
	for i < len(s) {
		c := s[i]

		if isPunctuation(c) {
			tokens++
			i++
			continue
		}

		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}

		// Numbers and hex runs: roughly 1 token per 3-4 chars
		if c >= '0' && c <= '9' {
			numLen := 0
			for i < len(s) && ((s[i] >= '0' && s[i] <= '9') || s[i] == '.' || s[i] == '-' || s[i] == '+' || s[i] == 'e' || s[i] == 'E') {
				numLen++
				i++
			}
			tokens += (numLen + 3) / 4
			continue
		}

		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' {
			wordLen := 0
			for i < len(s) && (isAlphaNum(s[i]) || s[i] == '_') {
				wordLen++
				i++
			}
			tokens += (wordLen + 3) / 4
			continue
		}

		tokens++
		i++
	}

	return max(1, tokens)
}

func isPunctuation(c byte) bool {
	return c == '{' || c == '}' || c == '[' || c == ']' ||
		c == '(' || c == ')' || c == ':' || c == ',' ||
		c == '"' || c == '<' || c == '>' || c == '\\' ||
		c == '!' || c == '?'
}

func isAlphaNum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,rows,tdb_bytes,json_bytes,bytes_pct,tdb_gzip,json_gzip,tdb_zstd,json_zstd,tdb_tokens,json_tokens,tokens_pct,parse_mbps,write_mbps")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%d,%.1f,%d,%d,%d,%d,%d,%d,%.1f,%.1f,%.1f\n",
			r.Name, r.Rows, r.TDBBytes, r.JSONBytes, r.BytesPct,
			r.TDBGzip, r.JSONGzip, r.TDBZstd, r.JSONZstd,
			r.TDBTokens, r.JSONTokens, r.TokensPct, r.ParseMBps, r.WriteMBps)
	}
}

func writeMarkdown(w io.Writer, results []CaseResult, totalJSON, totalTDB, totalJSONTok, totalTDBTok int) {
	fmt.Fprintf(w, "# TDB Benchmark Results\n\n")
	fmt.Fprintf(w, "**Date:** %s  \n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(w, "**Cases:** %d synthetic databases  \n\n", len(results))

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "| Metric | JSON | TDB | Savings |\n")
	fmt.Fprintf(w, "|--------|------|-----|---------|\n")
	fmt.Fprintf(w, "| **Bytes** | %d | %d | %d (%.1f%%) |\n",
		totalJSON, totalTDB, totalJSON-totalTDB, pct(totalJSON-totalTDB, totalJSON))
	fmt.Fprintf(w, "| **Tokens** (est.) | ~%d | ~%d | ~%d (%.1f%%) |\n\n",
		totalJSONTok, totalTDBTok, totalJSONTok-totalTDBTok, pct(totalJSONTok-totalTDBTok, totalJSONTok))

	sorted := make([]CaseResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BytesPct > sorted[j].BytesPct
	})

	fmt.Fprintf(w, "## Compressed Sizes\n\n")
	fmt.Fprintf(w, "| Case | TDB gzip | JSON gzip | TDB zstd | JSON zstd |\n")
	fmt.Fprintf(w, "|------|----------|-----------|----------|-----------|\n")
	for _, r := range sorted {
		fmt.Fprintf(w, "| %s | %d | %d | %d | %d |\n", r.Name, r.TDBGzip, r.JSONGzip, r.TDBZstd, r.JSONZstd)
	}

	fmt.Fprintf(w, "\n## Methodology\n\n")
	fmt.Fprintf(w, "- **JSON:** Compact output of `tdb.ToJSON`\n")
	fmt.Fprintf(w, "- **TDB:** Canonical text via `tdb.Write` at 2 decimals\n")
	fmt.Fprintf(w, "- **Compression:** klauspost/compress gzip (best) and zstd (better)\n")
	fmt.Fprintf(w, "- **Tokens:** Estimated using cl100k_base-like heuristics\n\n")

	fmt.Fprintf(w, "## Detailed Results\n\n")
	fmt.Fprintf(w, "| Case | Rows | JSON Bytes | TDB Bytes | Bytes %% | Tok %% | Parse MB/s | Write MB/s |\n")
	fmt.Fprintf(w, "|------|------|------------|-----------|---------|-------|------------|------------|\n")
	for _, r := range results {
		fmt.Fprintf(w, "| %s | %d | %d | %d | %.1f%% | %.1f%% | %.1f | %.1f |\n",
			truncateName(r.Name, 25), r.Rows, r.JSONBytes, r.TDBBytes, r.BytesPct, r.TokensPct, r.ParseMBps, r.WriteMBps)
	}
}

func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
