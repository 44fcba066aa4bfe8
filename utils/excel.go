package utils

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// GenerateExcel writes headers on the first row and rows below them into a
// single-sheet workbook and returns the encoded file.
func GenerateExcel(sheetName string, headers []string, rows [][]any) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	if sheetName != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("error removing default sheet: %w", err)
		}
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("error setting header %s: %w", header, err)
		}
	}

	for r, row := range rows {
		if len(row) != len(headers) {
			return nil, fmt.Errorf("row %d has %d values for %d headers", r+1, len(row), len(headers))
		}
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("error setting value at %s: %w", cell, err)
			}
		}
	}

	idx, err := f.GetSheetIndex(sheetName)
	if err == nil && idx >= 0 {
		index = idx
	}
	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error encoding workbook: %w", err)
	}
	return buf, nil
}

// ExcelFileName names an export after the task and the time it ran, e.g.
// items_Friday_April_10th_2020_at_3-04-05PM.xlsx.
func ExcelFileName(taskName string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%dth_%d_at_%s.xlsx",
		taskName, now.Weekday(), now.Month(), now.Day(), now.Year(), now.Format("3-04-05PM"))
}
