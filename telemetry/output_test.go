package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/chroma/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("empty dir should disable output, got %v, %v", om, err)
	}
	// A nil manager accepts every call.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteBookmark(Bookmark{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager should have no dir")
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	rows := []WindowStats{
		{WindowEndTick: 100, Population: 40, Births: 12, EasternmostColumn: 3},
		{WindowEndTick: 200, Population: 55, Births: 20, EasternmostColumn: 5},
	}
	for _, r := range rows {
		if err := om.WriteTelemetry(r); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkExtinction, Tick: 200, Description: "gone, all of them"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.WritePerf(PerfStats{TicksPerSecond: 10}, 200); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got []WindowStats
	readCSV(t, filepath.Join(dir, "telemetry.csv"), &got)
	if len(got) != 2 {
		t.Fatalf("read %d telemetry rows, want 2", len(got))
	}
	for i := range rows {
		if got[i].WindowEndTick != rows[i].WindowEndTick || got[i].Population != rows[i].Population ||
			got[i].Births != rows[i].Births || got[i].EasternmostColumn != rows[i].EasternmostColumn {
			t.Errorf("row %d = %+v, want %+v", i, got[i], rows[i])
		}
	}

	var marks []Bookmark
	readCSV(t, filepath.Join(dir, "bookmarks.csv"), &marks)
	if len(marks) != 1 || marks[0].Type != BookmarkExtinction || marks[0].Description != "gone, all of them" {
		t.Errorf("bookmarks = %+v", marks)
	}

	var perf []PerfStatsCSV
	readCSV(t, filepath.Join(dir, "perf.csv"), &perf)
	if len(perf) != 1 || perf[0].WindowEnd != 200 || perf[0].TicksPerSec != 10 {
		t.Errorf("perf = %+v", perf)
	}

	back, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if back.World != cfg.World {
		t.Errorf("config world = %+v, want %+v", back.World, cfg.World)
	}
}

func readCSV(t *testing.T, path string, out any) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := gocsv.UnmarshalFile(f, out); err != nil {
		t.Fatalf("parsing %s: %v", filepath.Base(path), err)
	}
}
