package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestJobFields_Fields(t *testing.T) {
	typ := reflect.TypeOf(JobFields{})

	assertGormTag(t, typ, "Machine", "not null")
	assertGormTag(t, typ, "Machine", "index")
	assertGormTag(t, typ, "Stage", "size:20")
	assertGormTag(t, typ, "Stage", "index")
	assertGormTag(t, typ, "Model", "not null")
	assertGormTag(t, typ, "Part", "not null")
	assertGormTag(t, typ, "Size", "not null")
	assertGormTag(t, typ, "Start", "size:20")
	assertGormTag(t, typ, "Finish", "size:20")
	assertGormTag(t, typ, "TargetHours", "not null")
	assertGormTag(t, typ, "Operator", "not null")
	assertGormTag(t, typ, "Achievement", "default:0")
	assertGormTag(t, typ, "Remark", "type:text")

	assertFieldType(t, typ, "Stage", "models.Stage")
	assertFieldType(t, typ, "Achievement", "float64")
}

func TestJob_Fields(t *testing.T) {
	typ := reflect.TypeOf(Job{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "autoIncrement")
	assertFieldType(t, typ, "ID", "uint")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
	assertFieldType(t, typ, "UpdatedAt", "time.Time")
	assertFieldType(t, typ, "Machine", "string")
}

func TestArchivedJob_Fields(t *testing.T) {
	typ := reflect.TypeOf(ArchivedJob{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "SourceJobID", "index")
	assertGormTag(t, typ, "ArchivedAt", "index")
	assertFieldType(t, typ, "ArchivedAt", "time.Time")
	assertFieldType(t, typ, "TargetHours", "string")
}

func TestStage_Valid(t *testing.T) {
	tests := []struct {
		stage Stage
		want  bool
	}{
		{StageCurrent, true},
		{StageNext, true},
		{"", false},
		{"done", false},
		{"CURRENT", false},
	}
	for _, tt := range tests {
		if got := tt.stage.Valid(); got != tt.want {
			t.Errorf("Stage(%q).Valid() = %v, want %v", tt.stage, got, tt.want)
		}
	}
}

func TestArchive_Snapshot(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	j := &Job{
		ID: 42,
		JobFields: JobFields{
			Machine:     "CNC1",
			Stage:       StageCurrent,
			Model:       "MODEL-A1",
			Part:        "SHAFT",
			Size:        "10x20",
			Start:       "01/06 - 08:00",
			Finish:      "01/06 - 11:00",
			TargetHours: "4 H",
			Operator:    "JONI",
			Achievement: 12.5,
			Remark:      "rush",
		},
	}

	a := Archive(j, 100, now)
	if a.SourceJobID != 42 {
		t.Errorf("SourceJobID = %d, want 42", a.SourceJobID)
	}
	if a.ID != 0 {
		t.Errorf("ID = %d, want 0 before insert", a.ID)
	}
	if a.Achievement != 100 {
		t.Errorf("Achievement = %v, want 100", a.Achievement)
	}
	if j.Achievement != 12.5 {
		t.Errorf("source Achievement mutated to %v", j.Achievement)
	}
	if a.Machine != "CNC1" || a.Stage != StageCurrent || a.Remark != "rush" {
		t.Errorf("snapshot fields = %+v", a.JobFields)
	}
	if !a.ArchivedAt.Equal(now) {
		t.Errorf("ArchivedAt = %v, want %v", a.ArchivedAt, now)
	}
}

func TestJob_JSONFlattensFields(t *testing.T) {
	j := Job{ID: 7, JobFields: JobFields{Machine: "CNC2", Stage: StageNext, TargetHours: "3 H"}}
	data, err := json.Marshal(j)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "machine", "stage", "target_hours", "achievement"} {
		if _, ok := m[key]; !ok {
			t.Errorf("JSON missing %q: %s", key, data)
		}
	}
	if _, ok := m["start"]; ok {
		t.Errorf("empty start should be omitted: %s", data)
	}
	if _, ok := m["JobFields"]; ok {
		t.Errorf("embedded struct should be flattened: %s", data)
	}
}
