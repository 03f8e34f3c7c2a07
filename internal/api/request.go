package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mwantia/agrilink/internal/ingest"
	"github.com/mwantia/agrilink/pkg/tabular"
)

func parseID(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id '%s'", raw)
	}
	return uint(id), nil
}

// pathID writes a validation error and returns false when the id is unusable.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := parseID(r)
	if err != nil {
		validationError(w, err.Error())
		return 0, false
	}
	return id, true
}

// parseMultipart bounds the request body and parses the form. It writes the
// error response itself and returns false on failure.
func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", h.opts.MaxUploadSize))
			return false
		}
		validationError(w, "invalid multipart form: "+err.Error())
		return false
	}
	return true
}

func formFiles(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}

func (h *Handler) readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload '%s': %w", fh.Filename, err)
	}
	defer f.Close()

	return tabular.ReadAll(f, fh.Size, h.opts.Read)
}

func (h *Handler) readImages(headers []*multipart.FileHeader) ([]ingest.ImageUpload, error) {
	uploads := make([]ingest.ImageUpload, 0, len(headers))
	for _, fh := range headers {
		data, err := h.readFile(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, ingest.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

// singleFile returns the one file uploaded under field, writing a validation
// error when there is none.
func singleFile(w http.ResponseWriter, r *http.Request, field string) (*multipart.FileHeader, bool) {
	files := formFiles(r, field)
	if len(files) == 0 {
		validationError(w, fmt.Sprintf("field '%s' is required", field))
		return nil, false
	}
	return files[0], true
}
