package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"collegedata-server-go/models"
)

const studentsSheet = "Students"

// ExportStudents writes every student to w as an .xlsx workbook with one
// header row followed by one row per student.
func (c *Catalog) ExportStudents(w io.Writer) error {
	students := c.snapshotStudents()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			c.log.Warn().Err(err).Msg("Error closing excel file")
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), studentsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(models.StudentFieldNames))
	for i, name := range models.StudentFieldNames {
		header[i] = name
	}
	if err := f.SetSheetRow(studentsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, s := range students {
		fields := s.Fields()
		// TA is written the way a checkbox submits it so the sheet imports back.
		fields["TA"] = ""
		if s.TA {
			fields["TA"] = "on"
		}
		row := make([]any, len(models.StudentFieldNames))
		for j, name := range models.StudentFieldNames {
			row[j] = cellValue(fields[name])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(studentsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cellValue writes stored JSON numbers as numbers rather than text.
func cellValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// ImportStudents reads the first sheet of an .xlsx workbook and adds one
// student per row through AddStudent. The first row names the fields of each
// column. Rows that fail to persist are logged and skipped; the number of
// students added is returned.
func (c *Catalog) ImportStudents(ctx context.Context, r io.Reader) (int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			c.log.Warn().Err(err).Msg("Error closing excel file")
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return 0, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(name)
	}

	imported := 0
	for i, row := range rows[1:] {
		fields := make(models.StudentFields)
		for j, cell := range row {
			if j >= len(header) || header[j] == "" || cell == "" {
				continue
			}
			fields[header[j]] = cell
		}
		if len(fields) == 0 {
			continue
		}

		if _, err := c.AddStudent(ctx, fields); err != nil {
			c.log.Warn().Err(err).Int("row", i+2).Msg("Skipping row during import")
			if ctx.Err() != nil {
				return imported, ctx.Err()
			}
			continue
		}
		imported++
	}

	c.log.Info().Int("imported", imported).Str("sheet", sheetName).Msg("Imported students from workbook")
	return imported, nil
}
