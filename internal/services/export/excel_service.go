package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/funilzap/crm-funnel-backend/internal/database/repository"
	"github.com/funilzap/crm-funnel-backend/internal/models"
)

// Service builds spreadsheet exports of the funnel for the dashboard
type Service struct {
	leadRepo *repository.LeadRepository
}

// NewExcelService creates a new export service instance
func NewExcelService(leadRepo *repository.LeadRepository) *Service {
	return &Service{leadRepo: leadRepo}
}

// ExportLeads renders every lead into a styled xlsx workbook and returns
// the serialized file
func (s *Service) ExportLeads() ([]byte, string, error) {
	leads, err := s.leadRepo.GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch leads: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Leads"
	defaultSheetName := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheetName, sheetName); err != nil {
		return nil, "", fmt.Errorf("failed to rename sheet: %w", err)
	}
	f.SetActiveSheet(0)

	// Styles per funnel state
	pausedStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"C6EFCE"}, // Green
			Pattern: 1,
		},
	})
	exhaustedStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"D9D9D9"}, // Gray
			Pattern: 1,
		},
	})
	lastStageStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFC000"}, // Orange
			Pattern: 1,
		},
	})

	columns := []string{
		"id", "name", "phone", "status", "attempts",
		"active", "next_dispatch_at", "created_at", "updated_at",
	}

	// Header row
	for i, col := range columns {
		cell := fmt.Sprintf("%s1", columnToLetter(i+1))
		f.SetCellValue(sheetName, cell, col)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFFF00"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err == nil {
		f.SetCellStyle(sheetName, "A1", columnToLetter(len(columns))+"1", headerStyle)
	}

	// Column widths
	for i, col := range columns {
		colLetter := columnToLetter(i + 1)
		width := 16.0
		switch col {
		case "name":
			width = 28.0
		case "phone", "status":
			width = 20.0
		case "next_dispatch_at", "created_at", "updated_at":
			width = 22.0
		}
		f.SetColWidth(sheetName, colLetter, colLetter, width)
	}

	for i, lead := range leads {
		rowNum := i + 2

		nextDispatch := ""
		if lead.NextDispatchAt != nil {
			nextDispatch = lead.NextDispatchAt.Format(time.RFC3339)
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), lead.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), lead.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowNum), lead.Phone)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowNum), lead.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowNum), lead.Attempts)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowNum), lead.Active)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", rowNum), nextDispatch)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", rowNum), lead.CreatedAt.Format(time.RFC3339))
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", rowNum), lead.UpdatedAt.Format(time.RFC3339))

		lastCell := fmt.Sprintf("%s%d", columnToLetter(len(columns)), rowNum)
		switch lead.Status {
		case models.StatusAguardandoLigacao:
			f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), lastCell, pausedStyle)
		case models.StatusNaoRespondeu:
			f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), lastCell, exhaustedStyle)
		case models.StatusUltimoContato:
			f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), lastCell, lastStageStyle)
		}
	}

	if len(leads) == 0 {
		f.SetCellValue(sheetName, "A2", "no leads found")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to serialize workbook: %w", err)
	}

	filename := fmt.Sprintf("leads_%d.xlsx", time.Now().Unix())
	return buf.Bytes(), filename, nil
}

// Helper function to convert column number to Excel column letter
func columnToLetter(col int) string {
	var result string
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
