package export

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/gymflow/internal/models"
)

const (
	sheetCheckIns = "Check-ins"
	sheetSummary  = "Resumo"
)

// Ширины колонок в символах, по порядку заголовков.
var (
	checkInsWidths = []float64{12, 8, 32, 18, 12}
	summaryWidths  = []float64{32, 12}
)

type CheckInSource interface {
	ListCheckIns(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]models.CheckInRow, error)
}

// CheckInsWorkbook — лист со всеми чекинами и лист-сводка по ученикам.
func CheckInsWorkbook(rows []models.CheckInRow, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetCheckIns); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	header := []any{"Data", "Hora", "Aluno", "Telefone", "Origem"}
	if err := f.SetSheetRow(sheetCheckIns, "A1", &header); err != nil {
		return nil, err
	}
	perStudent := map[string]int{}
	for i, r := range rows {
		at := r.CheckedInAt.In(loc)
		line := []any{at.Format("02/01/2006"), at.Format("15:04"), r.StudentName, r.Phone, r.Source}
		if err := f.SetSheetRow(sheetCheckIns, fmt.Sprintf("A%d", i+2), &line); err != nil {
			return nil, err
		}
		perStudent[r.StudentName]++
	}
	if err := formatSheet(f, sheetCheckIns, checkInsWidths); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	names := make([]string, 0, len(perStudent))
	for n := range perStudent {
		names = append(names, n)
	}
	// больше посещений — выше
	sort.Slice(names, func(i, j int) bool {
		if perStudent[names[i]] != perStudent[names[j]] {
			return perStudent[names[i]] > perStudent[names[j]]
		}
		return names[i] < names[j]
	})
	sumHeader := []any{"Aluno", "Check-ins"}
	if err := f.SetSheetRow(sheetSummary, "A1", &sumHeader); err != nil {
		return nil, err
	}
	for i, n := range names {
		line := []any{n, perStudent[n]}
		if err := f.SetSheetRow(sheetSummary, fmt.Sprintf("A%d", i+2), &line); err != nil {
			return nil, err
		}
	}
	if err := formatSheet(f, sheetSummary, summaryWidths); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteCheckIns — выгрузка за [from, to) в w.
func WriteCheckIns(ctx context.Context, src CheckInSource, orgID uuid.UUID, from, to time.Time, loc *time.Location, w io.Writer) (int, error) {
	rows, err := src.ListCheckIns(ctx, orgID, from, to)
	if err != nil {
		return 0, fmt.Errorf("list check-ins: %w", err)
	}
	f, err := CheckInsWorkbook(rows, loc)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("write xlsx: %w", err)
	}
	return len(rows), nil
}

// formatSheet — жирная закреплённая шапка, фильтр по ней и фиксированные ширины.
func formatSheet(f *excelize.File, sheet string, widths []float64) error {
	if len(widths) == 0 {
		return nil
	}
	last, err := excelize.ColumnNumberToName(len(widths))
	if err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, "A1:"+last+"1", nil); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

var invalidFileChars = regexp.MustCompile(`[\\/:*?"<>|]+`)

// BuildCheckInsFilename — имя файла выгрузки посещаемости; to включительно.
func BuildCheckInsFilename(orgName string, from, to time.Time) string {
	org := strings.Join(strings.Fields(orgName), " ")
	if org == "" {
		org = "academia"
	}
	name := fmt.Sprintf("Check-ins — %s — %s a %s.xlsx", org, from.Format("02-01-2006"), to.Format("02-01-2006"))
	return invalidFileChars.ReplaceAllString(name, "_")
}
