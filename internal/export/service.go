package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/swimline/heatsheet/internal/repository"
)

// Service is a tiny façade over the extraction store that produces XLSX bytes
// for a swimmer's event list.
type Service struct {
	extractions repository.ExtractionRepository
	logger      *slog.Logger
}

func NewService(extractions repository.ExtractionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{extractions: extractions, logger: logger}
}

// ExportEventsXLSX returns an XLSX workbook (as bytes) for one cached
// extraction: a header block with the meet metadata followed by one row per
// event.
func (s *Service) ExportEventsXLSX(ctx context.Context, extractionID uuid.UUID) ([]byte, error) {
	start := time.Now()

	ext, err := s.extractions.GetByID(ctx, extractionID)
	if err != nil {
		return nil, fmt.Errorf("load extraction: %w", err)
	}
	res := ext.Result

	f := excelize.NewFile()
	const sheet = "Events"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	// Meet metadata block.
	write(1, 1, "Meet")
	write(2, 1, res.MeetName)
	write(1, 2, "Session Date")
	write(2, 2, res.SessionDate)
	write(1, 3, "Swimmer")
	write(2, 3, ext.DisplayName)
	if res.Venue != "" {
		write(1, 4, "Venue")
		write(2, 4, res.Venue)
	}

	headers := []string{
		"Event #",
		"Event",
		"Heat",
		"Lane",
		"Age",
		"Team",
		"Seed Time",
		"Heat Start",
	}
	const headerRow = 6
	for i, h := range headers {
		write(i+1, headerRow, h)
	}

	row := headerRow + 1
	for _, ev := range res.Events {
		write(1, row, ev.EventNumber)
		write(2, row, ev.EventName)
		write(3, row, ev.HeatNumber)
		write(4, row, ev.Lane)
		if ev.Age > 0 {
			write(5, row, ev.Age)
		}
		write(6, row, ev.Team)
		write(7, row, ev.SeedTime)
		write(8, row, ev.HeatStartTime)
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 10) // event number
	_ = f.SetColWidth(sheet, "B", "B", 32) // event name
	_ = f.SetColWidth(sheet, "C", "E", 8)  // heat, lane, age
	_ = f.SetColWidth(sheet, "F", "F", 24) // team
	_ = f.SetColWidth(sheet, "G", "H", 12) // times

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"extraction_id", extractionID.String(),
		"rows", len(res.Events),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
