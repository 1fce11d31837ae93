package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	sqlitestore "tradesignals/internal/store/sqlite"
)

func TestImportCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "in.csv")
	data := "DateTime,Open,High,Low,Close,Volume\n" +
		"2024-01-02 00:00:00,10,11,9,10.5,100\n" +
		"2024-01-03 00:00:00,10.5,12,10,11.5,120\n" +
		"2024-01-04 00:00:00,11.5,12,11,11.8,90\n"
	if err := os.WriteFile(csvPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "candles.db")
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	for pass := 0; pass < 2; pass++ {
		n, err := importCSV(ctx, csvPath, "ACME", "1d", dbPath, time.UTC, lg)
		if err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		if n != 3 {
			t.Errorf("pass %d: imported %d, want 3", pass, n)
		}
	}

	r, err := sqlitestore.NewReader(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	s, err := r.ReadSeries(ctx, "ACME", "1d", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 || s.Candles[2].Close != 11.8 {
		t.Errorf("stored series: %d candles, %+v", s.Len(), s.Candles)
	}
}
