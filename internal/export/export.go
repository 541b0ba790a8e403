// Package export writes jobs and archive rows as xlsx workbooks and runs
// periodic archive snapshots.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"github.com/zulandar/spindle/internal/models"
)

// Sheet names used in exported workbooks.
const (
	JobsSheet    = "Jobs"
	ArchiveSheet = "Archive"
)

// Headers is the header row of every exported sheet.
var Headers = []string{
	"ID", "Machine", "Stage", "Model", "Part", "Size",
	"Start", "Finish", "Target", "Operator", "Achievement", "Remark",
}

// WriteJobs writes live jobs to w as a single-sheet workbook.
func WriteJobs(w io.Writer, jobs []models.Job) error {
	rows := make([][]any, len(jobs))
	for i := range jobs {
		rows[i] = row(jobs[i].ID, &jobs[i].JobFields)
	}
	return writeSheet(w, JobsSheet, rows)
}

// WriteArchive writes archived jobs to w. The ID column holds the id the
// job had while live.
func WriteArchive(w io.Writer, archived []models.ArchivedJob) error {
	rows := make([][]any, len(archived))
	for i := range archived {
		rows[i] = row(archived[i].SourceJobID, &archived[i].JobFields)
	}
	return writeSheet(w, ArchiveSheet, rows)
}

func row(id uint, f *models.JobFields) []any {
	return []any{
		id, f.Machine, string(f.Stage), f.Model, f.Part, f.Size,
		f.Start, f.Finish, f.TargetHours, f.Operator, f.Achievement, f.Remark,
	}
}

func writeSheet(w io.Writer, sheet string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("export: name sheet: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("export: row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}
