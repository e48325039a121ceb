package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/swimline/heatsheet/internal/entity"
)

func TestProviderFileStale(t *testing.T) {
	now := time.Date(2025, 4, 12, 10, 0, 0, 0, time.UTC)
	ttl := 29 * 24 * time.Hour

	fresh := now.Add(-24 * time.Hour)
	expired := now.Add(-30 * 24 * time.Hour)

	tests := []struct {
		name string
		file entity.PDFFile
		want bool
	}{
		{"never uploaded", entity.PDFFile{}, true},
		{"handle without timestamp", entity.PDFFile{ProviderFileID: "file-1"}, true},
		{"fresh handle", entity.PDFFile{ProviderFileID: "file-1", ProviderUploadedAt: &fresh}, false},
		{"expired handle", entity.PDFFile{ProviderFileID: "file-1", ProviderUploadedAt: &expired}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProviderFileStale(&tt.file, ttl, now))
		})
	}
}
