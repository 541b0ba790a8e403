package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/zulandar/spindle/internal/models"
)

func sampleJob(id uint, machine string, stage models.Stage) models.Job {
	return models.Job{ID: id, JobFields: models.JobFields{
		Machine:     machine,
		Stage:       stage,
		Model:       "MODEL-A1",
		Part:        "SHAFT",
		Size:        "10x20",
		Start:       "01/06 - 08:00",
		Finish:      "01/06 - 14:00",
		TargetHours: "4 H",
		Operator:    "JONI",
		Achievement: 50,
		Remark:      "coolant low",
	}}
}

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows(%s): %v", sheet, err)
	}
	return rows
}

func TestWriteJobs(t *testing.T) {
	var buf bytes.Buffer
	jobs := []models.Job{sampleJob(3, "CNC1", models.StageCurrent), sampleJob(9, "CNC2", models.StageNext)}
	if err := WriteJobs(&buf, jobs); err != nil {
		t.Fatalf("WriteJobs: %v", err)
	}

	rows := readRows(t, buf.Bytes(), JobsSheet)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for i, h := range Headers {
		if rows[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], h)
		}
	}
	want := []string{"3", "CNC1", "current", "MODEL-A1", "SHAFT", "10x20", "01/06 - 08:00", "01/06 - 14:00", "4 H", "JONI", "50", "coolant low"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("row 1 col %d = %q, want %q", i, rows[1][i], v)
		}
	}
	if rows[2][1] != "CNC2" {
		t.Errorf("row 2 machine = %q", rows[2][1])
	}
}

func TestWriteArchive_UsesSourceID(t *testing.T) {
	j := sampleJob(41, "CNC4", models.StageCurrent)
	a := models.Archive(&j, 100, time.Now())
	a.ID = 1

	var buf bytes.Buffer
	if err := WriteArchive(&buf, []models.ArchivedJob{*a}); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	rows := readRows(t, buf.Bytes(), ArchiveSheet)
	if len(rows) != 2 || rows[1][0] != "41" || rows[1][10] != "100" {
		t.Errorf("rows = %v", rows)
	}
}

func TestWriteArchive_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteArchive(&buf, nil); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	rows := readRows(t, buf.Bytes(), ArchiveSheet)
	if len(rows) != 1 {
		t.Errorf("got %d rows, want header only", len(rows))
	}
}

type fakeSource struct {
	rows []models.ArchivedJob
	err  error
}

func (f *fakeSource) ListArchive(context.Context) ([]models.ArchivedJob, error) {
	return f.rows, f.err
}

func TestNewScheduler_InvalidExpression(t *testing.T) {
	if _, err := NewScheduler("not a cron expr", t.TempDir(), &fakeSource{}, nil); err == nil {
		t.Error("expected error for invalid expression")
	}
	if _, err := NewScheduler("*/5 * * * * *", t.TempDir(), &fakeSource{}, nil); err == nil {
		t.Error("expected error for 6-field expression")
	}
}

func TestScheduler_Snapshot(t *testing.T) {
	j := sampleJob(7, "CNC3", models.StageCurrent)
	src := &fakeSource{rows: []models.ArchivedJob{*models.Archive(&j, 50, time.Now())}}
	dir := filepath.Join(t.TempDir(), "snapshots")

	s, err := NewScheduler("0 18 * * *", dir, src, nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	s.now = func() time.Time { return time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC) }

	path, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if filepath.Base(path) != "archive-20250601-180000.xlsx" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	rows := readRows(t, data, ArchiveSheet)
	if len(rows) != 2 || rows[1][1] != "CNC3" {
		t.Errorf("rows = %v", rows)
	}
}

func TestScheduler_SnapshotSourceError(t *testing.T) {
	dir := t.TempDir()
	s, err := NewScheduler("* * * * *", dir, &fakeSource{err: errors.New("db gone")}, nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	if _, err := s.Snapshot(context.Background()); err == nil {
		t.Error("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("snapshot dir has %d files after failure", len(entries))
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := NewScheduler("* * * * *", t.TempDir(), &fakeSource{}, nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	s.Start()
	next := s.Next()
	s.Stop()
	if next.IsZero() {
		t.Fatal("Next() is zero after Start")
	}
	if d := time.Until(next); d > 61*time.Second {
		t.Errorf("next run in %v, want under a minute", d)
	}
}
