package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zulandar/spindle/internal/models"
)

func TestNavigate(t *testing.T) {
	m, s := newTestManager(t, Options{})
	insert(t, s, 1, "CNC1", models.StageCurrent)
	insert(t, s, 10, "CNC1", models.StageNext)
	insert(t, s, 11, "CNC1", models.StageNext)
	insert(t, s, 12, "CNC1", models.StageNext)
	insert(t, s, 13, "CNC2", models.StageNext)

	tests := []struct {
		name    string
		dir     Direction
		current uint
		want    uint
	}{
		{"next from head", DirNext, 10, 11},
		{"next from middle", DirNext, 11, 12},
		{"next wraps to head", DirNext, 12, 10},
		{"prev from tail", DirPrev, 12, 11},
		{"prev wraps to tail", DirPrev, 10, 12},
		{"no position steps from head", DirNext, 0, 11},
		{"no position prev wraps", DirPrev, 0, 12},
		{"unknown position steps from head", DirNext, 99, 11},
		{"current job is not in the queue", DirNext, 1, 11},
		{"unknown direction keeps position", Direction("sideways"), 11, 11},
		{"unknown direction without position", Direction(""), 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Navigate(context.Background(), "CNC1", tt.dir, tt.current)
			if err != nil {
				t.Fatalf("Navigate: %v", err)
			}
			if got == nil {
				t.Fatal("Navigate() returned nil")
			}
			if got.ID != tt.want {
				t.Errorf("Navigate(%q, %d) = job %d, want %d", tt.dir, tt.current, got.ID, tt.want)
			}
			if got.Machine != "CNC1" || got.Stage != models.StageNext {
				t.Errorf("Navigate() returned %s/%s job", got.Machine, got.Stage)
			}
		})
	}
}

func TestNavigate_SingleJobQueue(t *testing.T) {
	m, s := newTestManager(t, Options{})
	insert(t, s, 4, "CNC2", models.StageNext)

	for _, dir := range []Direction{DirNext, DirPrev} {
		got, err := m.Navigate(context.Background(), "CNC2", dir, 4)
		if err != nil {
			t.Fatalf("Navigate(%s): %v", dir, err)
		}
		if got == nil || got.ID != 4 {
			t.Errorf("Navigate(%s) = %v, want job 4", dir, got)
		}
	}
}

func TestNavigate_EmptyQueue(t *testing.T) {
	m, s := newTestManager(t, Options{})
	insert(t, s, 1, "CNC3", models.StageCurrent)

	got, err := m.Navigate(context.Background(), "CNC3", DirNext, 0)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if got != nil {
		t.Errorf("Navigate() = job %d, want nil", got.ID)
	}
}

func TestNavigate_UnknownMachine(t *testing.T) {
	m, _ := newTestManager(t, Options{})

	_, err := m.Navigate(context.Background(), "LATHE9", DirNext, 0)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "machine" {
		t.Errorf("Navigate(LATHE9) error = %v, want machine ValidationError", err)
	}
}

func TestDashboard(t *testing.T) {
	m, s := newTestManager(t, Options{})
	insert(t, s, 1, "CNC1", models.StageCurrent)
	insert(t, s, 5, "CNC1", models.StageNext)
	insert(t, s, 3, "CNC1", models.StageNext)
	insert(t, s, 7, "CNC2", models.StageNext)

	board, err := m.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(board) != 5 {
		t.Fatalf("Dashboard() has %d machines, want 5", len(board))
	}

	cnc1 := board["CNC1"]
	if cnc1.Current == nil || cnc1.Current.ID != 1 {
		t.Errorf("CNC1 current = %v, want job 1", cnc1.Current)
	}
	if len(cnc1.Next) != 2 || cnc1.Next[0].ID != 3 || cnc1.Next[1].ID != 5 {
		t.Errorf("CNC1 next = %+v, want jobs 3 and 5", cnc1.Next)
	}
	if cnc1.Total != 3 {
		t.Errorf("CNC1 total = %d, want 3", cnc1.Total)
	}

	cnc2 := board["CNC2"]
	if cnc2.Current != nil {
		t.Errorf("CNC2 current = job %d, want none", cnc2.Current.ID)
	}
	if cnc2.Total != 1 {
		t.Errorf("CNC2 total = %d, want 1", cnc2.Total)
	}

	cnc5 := board["CNC5"]
	if cnc5.Current != nil || cnc5.Next == nil || len(cnc5.Next) != 0 || cnc5.Total != 0 {
		t.Errorf("CNC5 = %+v, want empty entry with non-nil queue", cnc5)
	}
}

func TestDashboard_DuplicateCurrentShowsLowestID(t *testing.T) {
	m, s := newTestManager(t, Options{Machines: []string{"CNC1"}})
	insert(t, s, 9, "CNC1", models.StageCurrent)
	insert(t, s, 4, "CNC1", models.StageCurrent)
	insert(t, s, 6, "CNC1", models.StageNext)

	board, err := m.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	entry := board["CNC1"]
	if entry.Current == nil || entry.Current.ID != 4 {
		t.Errorf("current = %v, want job 4", entry.Current)
	}
	if entry.Total != 2 {
		t.Errorf("total = %d, want 2", entry.Total)
	}
}

func TestDashboard_IgnoresUnconfiguredMachines(t *testing.T) {
	m, s := newTestManager(t, Options{Machines: []string{"CNC1"}})
	insert(t, s, 2, "OLD-MILL", models.StageCurrent)

	board, err := m.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if _, ok := board["OLD-MILL"]; ok {
		t.Error("Dashboard() reported an unconfigured machine")
	}
	if len(board) != 1 {
		t.Errorf("Dashboard() has %d machines, want 1", len(board))
	}
}

func TestListArchiveAndClear(t *testing.T) {
	rec := &countingRecorder{}
	m, s := newTestManager(t, Options{Metrics: rec})
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		j := &models.Job{ID: uint(20 + i), JobFields: validFields("CNC2", models.StageCurrent).columns()}
		if err := s.InsertArchived(ctx, models.Archive(j, 100, now)); err != nil {
			t.Fatalf("InsertArchived: %v", err)
		}
	}

	rows, err := m.ListArchive(ctx)
	if err != nil {
		t.Fatalf("ListArchive: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("ListArchive() returned %d rows, want 5", len(rows))
	}
	if rows[0].SourceJobID != 20 || rows[4].SourceJobID != 24 {
		t.Errorf("ListArchive() order = %d..%d, want 20..24", rows[0].SourceJobID, rows[4].SourceJobID)
	}

	n, err := m.ClearArchive(ctx)
	if err != nil {
		t.Fatalf("ClearArchive: %v", err)
	}
	if n != 5 {
		t.Errorf("ClearArchive() = %d, want 5", n)
	}
	if rec.cleared != 5 {
		t.Errorf("recorder cleared = %d, want 5", rec.cleared)
	}

	rows, err = m.ListArchive(ctx)
	if err != nil {
		t.Fatalf("ListArchive after clear: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("ListArchive() after clear returned %d rows", len(rows))
	}

	n, err = m.ClearArchive(ctx)
	if err != nil {
		t.Fatalf("second ClearArchive: %v", err)
	}
	if n != 0 {
		t.Errorf("second ClearArchive() = %d, want 0", n)
	}
}

func TestClearArchive_LeavesLiveJobs(t *testing.T) {
	m, s := newTestManager(t, Options{})
	ctx := context.Background()
	insert(t, s, 1, "CNC1", models.StageCurrent)
	if err := s.InsertArchived(ctx, models.Archive(&models.Job{ID: 2, JobFields: validFields("CNC1", models.StageCurrent).columns()}, 50, time.Now())); err != nil {
		t.Fatalf("InsertArchived: %v", err)
	}

	if _, err := m.ClearArchive(ctx); err != nil {
		t.Fatalf("ClearArchive: %v", err)
	}
	if _, err := m.Get(ctx, 1); err != nil {
		t.Errorf("live job removed by ClearArchive: %v", err)
	}
}
