package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/swimline/heatsheet/internal/common"
	"github.com/swimline/heatsheet/internal/entity"
	"github.com/swimline/heatsheet/internal/pipeline"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type extractForm struct {
	SwimmerName string `validate:"required,min=2,max=120"`
	SourceURL   string `validate:"omitempty,url"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if s.maxPDFBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxPDFBytes+64*1024)
	}
	if err := r.ParseMultipartForm(s.maxPDFBytes); err != nil {
		s.writeError(w, r, common.NewAppError("INVALID_INPUT", "expected multipart form with a pdf file", common.ErrInvalidInput))
		return
	}

	form := extractForm{
		SwimmerName: r.FormValue("swimmer_name"),
		SourceURL:   r.FormValue("source_url"),
	}
	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		msg := "invalid request"
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = fmt.Sprintf("invalid field %q (%s)", verrs[0].Field(), verrs[0].Tag())
		}
		s.writeError(w, r, common.NewAppError("INVALID_INPUT", msg, common.ErrInvalidInput))
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		s.writeError(w, r, common.NewAppError("INVALID_INPUT", "pdf file is required", common.ErrInvalidInput))
		return
	}
	defer file.Close()

	pdfBytes, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, common.NewAppError("INVALID_INPUT", "could not read pdf upload", common.ErrInvalidInput))
		return
	}
	if s.maxPDFBytes > 0 && int64(len(pdfBytes)) > s.maxPDFBytes {
		s.writeError(w, r, common.NewAppError("INVALID_INPUT",
			fmt.Sprintf("pdf exceeds %d byte limit", s.maxPDFBytes), common.ErrInvalidInput))
		return
	}

	out, err := s.extract.Extract(r.Context(), pdfBytes, form.SwimmerName, pipeline.Meta{
		SourceURL: form.SourceURL,
		Filename:  header.Filename,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	ext, err := s.resolveExtraction(r, code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"result_code": code,
		"swimmer":     ext.DisplayName,
		"result":      ext.Result,
		"created_at":  ext.CreatedAt,
	})
}

func (s *Server) handleResultExport(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	ext, err := s.resolveExtraction(r, code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.exporter.ExportEventsXLSX(r.Context(), ext.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="events-%s.xlsx"`, code))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) resolveExtraction(r *http.Request, code string) (*entity.Extraction, error) {
	link, err := s.results.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewAppError("NOT_FOUND", "unknown result code", common.ErrNotFound)
		}
		return nil, err
	}
	return s.results.GetExtraction(r.Context(), link.ExtractionID)
}
