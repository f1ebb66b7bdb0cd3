package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kanyini-os/kanyini/internal/source"
	"github.com/kanyini-os/kanyini/internal/store"
)

// writeDonationFiles creates n donation files with perFile records each.
func writeDonationFiles(tb testing.TB, dir string, n, perFile int) {
	tb.Helper()
	for f := 0; f < n; f++ {
		var b strings.Builder
		for i := 0; i < perFile; i++ {
			fmt.Fprintf(&b, `{"id":"d-%d-%d","donor_id":"donor-%d","campaign_id":"camp-%d","amount":%d,"date":"2026-09-%02d","method":"card"}`+"\n",
				f, i, i%50, i%6, 10+i%90, 1+i%28)
		}
		path := filepath.Join(dir, fmt.Sprintf("donations-%03d.jsonl", f))
		if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
			tb.Fatal(err)
		}
	}
}

func BenchmarkLoad(b *testing.B) {
	dir := b.TempDir()
	writeDonationFiles(b, dir, 32, 500)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, err := Load(dir, nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = result
	}
}

func BenchmarkParseFile(b *testing.B) {
	dir := b.TempDir()
	writeDonationFiles(b, dir, 1, 5000)

	files, err := source.ScanDir(dir)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result := source.ParseFile(files[0])
		if result.Err != nil {
			b.Fatal(result.Err)
		}
	}
}

func BenchmarkLoadWithCache(b *testing.B) {
	dir := b.TempDir()
	writeDonationFiles(b, dir, 32, 500)

	cache, err := store.Open(filepath.Join(b.TempDir(), "metrics.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	// Warm the cache once
	if _, err := LoadWithCache(dir, cache, nil); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, err := LoadWithCache(dir, cache, nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = result
	}
}
