package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/swimline/heatsheet/internal/common"
	"github.com/swimline/heatsheet/internal/entity"
	"github.com/swimline/heatsheet/internal/llm"
)

type stubExtractions struct {
	byID map[uuid.UUID]*entity.Extraction
}

func (s *stubExtractions) Get(ctx context.Context, pdfID uuid.UUID, normalizedName string) (*entity.Extraction, error) {
	return nil, common.ErrNotFound
}

func (s *stubExtractions) GetByID(ctx context.Context, id uuid.UUID) (*entity.Extraction, error) {
	if e, ok := s.byID[id]; ok {
		return e, nil
	}
	return nil, common.ErrNotFound
}

func (s *stubExtractions) Create(ctx context.Context, pdfID uuid.UUID, normalizedName, displayName string, result *llm.ExtractionResult) (*entity.Extraction, bool, error) {
	return nil, false, common.ErrInternal
}

func TestExportEventsXLSX(t *testing.T) {
	id := uuid.New()
	repo := &stubExtractions{byID: map[uuid.UUID]*entity.Extraction{
		id: {
			ID:             id,
			NormalizedName: "elly liu",
			DisplayName:    "Elly Liu",
			Result: llm.ExtractionResult{
				MeetName:    "Spring Invitational",
				SessionDate: "2025-04-12",
				Venue:       "City Aquatic Center",
				Events: []llm.SwimEvent{
					{EventNumber: 12, EventName: "Girls 100 Free", HeatNumber: 3, Lane: 4, SwimmerName: "Elly Liu", SeedTime: "1:05.32", HeatStartTime: "09:40"},
					{EventNumber: 24, EventName: "Girls 200 IM", HeatNumber: 1, Lane: 6, SwimmerName: "Elly Liu", SeedTime: "NT", HeatStartTime: "unknown"},
				},
			},
			CreatedAt: time.Now(),
		},
	}}
	svc := NewService(repo, nil)

	data, err := svc.ExportEventsXLSX(context.Background(), id)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	meet, err := wb.GetCellValue("Events", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Spring Invitational", meet)

	swimmer, _ := wb.GetCellValue("Events", "B3")
	assert.Equal(t, "Elly Liu", swimmer)

	firstEvent, _ := wb.GetCellValue("Events", "B7")
	assert.Equal(t, "Girls 100 Free", firstEvent)

	seed, _ := wb.GetCellValue("Events", "G8")
	assert.Equal(t, "NT", seed)
}

func TestExportEventsXLSXMissingExtraction(t *testing.T) {
	svc := NewService(&stubExtractions{byID: map[uuid.UUID]*entity.Extraction{}}, nil)

	_, err := svc.ExportEventsXLSX(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}
