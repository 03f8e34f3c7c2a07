package api

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/mwantia/agrilink/internal/ingest"
)

// UploadGenetic handles POST /api/v1/genetic-datasets.
// Multipart form: file (required), images (optional, matched by filename).
func (h *Handler) UploadGenetic(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	fh, ok := singleFile(w, r, "file")
	if !ok {
		return
	}
	data, err := h.readFile(fh)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	images, err := h.readImages(formFiles(r, "images"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.svc.UploadGenetic(r.Context(), OwnerFromContext(r.Context()), ingest.GeneticUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
		Images:      images,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) ListGenetic(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.svc.ListGenetic(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, datasets)
}

func (h *Handler) GetGenetic(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.GetGenetic(r.Context(), OwnerFromContext(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) DeleteGenetic(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteGenetic(r.Context(), OwnerFromContext(r.Context()), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadGenetic returns the original upload, decrypted.
func (h *Handler) DownloadGenetic(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	download, err := h.svc.DownloadGenetic(r.Context(), OwnerFromContext(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	contentType := download.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(download.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": download.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(download.Data); err != nil {
		h.log.Warn("Failed to write genetic dataset %d: %v", id, err)
	}
}
