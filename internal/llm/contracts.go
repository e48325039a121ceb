package llm

import "context"

// DateRange is an inclusive meet date span, ISO dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SwimEvent is one heat assignment for a swimmer. Identity for deduplication
// is (event_number, heat_number, lane, swimmer_name).
type SwimEvent struct {
	EventNumber   int    `json:"event_number"`
	EventName     string `json:"event_name"`
	HeatNumber    int    `json:"heat_number"`
	Lane          int    `json:"lane"`
	SwimmerName   string `json:"swimmer_name"`
	Age           int    `json:"age,omitempty"`
	Team          string `json:"team,omitempty"`
	SeedTime      string `json:"seed_time,omitempty"`       // "NT" when no seed time
	HeatStartTime string `json:"heat_start_time,omitempty"` // "HH:MM" 24h, or "unknown"
}

// ExtractionResult is the normalized shape we want from the model.
type ExtractionResult struct {
	MeetName      string      `json:"meet_name"`
	SessionDate   string      `json:"session_date"` // YYYY-MM-DD
	MeetDateRange *DateRange  `json:"meet_date_range,omitempty"`
	Venue         string      `json:"venue,omitempty"`
	Events        []SwimEvent `json:"events"`
	Warnings      []string    `json:"warnings,omitempty"`
}

// Extractor is the model-provider behavior the pipeline depends on.
type Extractor interface {
	// Model returns the configured model identifier.
	Model() string
	// UploadFile pushes raw PDF bytes to the provider and returns the opaque
	// file handle (valid for roughly 30 days).
	UploadFile(ctx context.Context, filename string, data []byte) (string, error)
	// ExtractWithFile runs one extraction referencing an uploaded file.
	ExtractWithFile(ctx context.Context, fileID, prompt string) (*ExtractionResult, error)
	// ExtractWithImages runs one extraction over rendered page images.
	ExtractWithImages(ctx context.Context, imageURLs []string, prompt string) (*ExtractionResult, error)
}
