package service

import (
	"fmt"

	"estate-admin/internal/models"

	"github.com/xuri/excelize/v2"
)

const historySheet = "Import History"

var historyHeaders = []string{
	"Session Code", "Entity", "Filename", "Format", "Total", "Imported",
	"Skipped", "Failed", "Status", "Message", "Created At", "Completed At",
}

var statusFills = map[string]string{
	models.ImportStatusCompleted: "#D4EDDA",
	models.ImportStatusFailed:    "#F8D7DA",
	models.ImportStatusUploading: "#FFF3CD",
	models.ImportStatusCancelled: "#E2E3E5",
}

// HistoryWorkbook renders import sessions as a styled spreadsheet with a
// per-status summary below the table.
func HistoryWorkbook(sessions []models.ImportSession) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(historySheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err := f.SetSheetRow(historySheet, "A1", &historyHeaders); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(historyHeaders))
	f.SetCellStyle(historySheet, "A1", lastCol+"1", headerStyle)

	fillStyles := make(map[string]int, len(statusFills))
	for status, color := range statusFills {
		style, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		fillStyles[status] = style
	}

	statusCounts := make(map[string]int)
	for i, s := range sessions {
		row := i + 2
		completed := ""
		if s.CompletedAt != nil {
			completed = s.CompletedAt.Format("2006-01-02 15:04:05")
		}
		values := []interface{}{
			s.SessionCode, s.EntityKind, s.Filename, s.Format, s.TotalRecords, s.Imported,
			s.Skipped, s.Failed, s.Status, s.Message, s.CreatedAt.Format("2006-01-02 15:04:05"), completed,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(historySheet, cell, &values); err != nil {
			return nil, err
		}
		if style, ok := fillStyles[s.Status]; ok {
			statusCell := fmt.Sprintf("I%d", row)
			f.SetCellStyle(historySheet, statusCell, statusCell, style)
		}
		statusCounts[s.Status]++
	}

	f.SetColWidth(historySheet, "A", lastCol, 15)
	f.SetColWidth(historySheet, "A", "A", 20)
	f.SetColWidth(historySheet, "C", "C", 25)
	f.SetColWidth(historySheet, "J", "J", 40)
	f.SetColWidth(historySheet, "K", "L", 20)

	if len(sessions) > 0 {
		summaryRow := len(sessions) + 3
		f.SetCellValue(historySheet, fmt.Sprintf("A%d", summaryRow), "Summary:")
		f.SetCellValue(historySheet, fmt.Sprintf("B%d", summaryRow), fmt.Sprintf("Total Sessions: %d", len(sessions)))
		row := summaryRow + 1
		for _, status := range []string{
			models.ImportStatusCompleted, models.ImportStatusFailed,
			models.ImportStatusUploading, models.ImportStatusPreviewing, models.ImportStatusCancelled,
		} {
			if n := statusCounts[status]; n > 0 {
				f.SetCellValue(historySheet, fmt.Sprintf("B%d", row), fmt.Sprintf("%s: %d", status, n))
				row++
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
