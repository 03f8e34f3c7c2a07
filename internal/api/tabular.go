package api

import (
	"net/http"
	"strconv"

	"github.com/mwantia/agrilink/internal/ingest"
)

// UploadTabular handles POST /api/v1/tabular-files.
// Multipart form: file (required), name (optional).
func (h *Handler) UploadTabular(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.svc.UploadTabular(r.Context(), OwnerFromContext(r.Context()), ingest.TabularUpload{
		Name:     r.FormValue("name"),
		Filename: fh.Filename,
		Data:     data,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) ListTabular(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.ListTabular(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]tabularFileResponse, 0, len(files))
	for i := range files {
		out = append(out, newTabularFileResponse(&files[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetTabular(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	file, err := h.svc.GetTabular(r.Context(), OwnerFromContext(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTabularFileResponse(file))
}

func (h *Handler) DeleteTabular(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteTabular(r.Context(), OwnerFromContext(r.Context()), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceTabularContent handles PUT /api/v1/tabular-files/{id}/content.
func (h *Handler) ReplaceTabularContent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
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

	result, err := h.svc.ReplaceTabularContent(r.Context(), OwnerFromContext(r.Context()), id, ingest.TabularUpload{
		Name:     r.FormValue("name"),
		Filename: fh.Filename,
		Data:     data,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ProcessTabular handles POST /api/v1/tabular-files/{id}/process?force=true.
func (h *Handler) ProcessTabular(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			validationError(w, "force must be a boolean")
			return
		}
		force = parsed
	}

	result, err := h.svc.ProcessTabular(r.Context(), OwnerFromContext(r.Context()), id, force)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) PreviewTabular(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	preview, err := h.svc.PreviewTabular(r.Context(), OwnerFromContext(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}
