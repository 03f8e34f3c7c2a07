package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/mwantia/agrilink/internal/ingest"
	"github.com/mwantia/agrilink/pkg/db/store"
)

// UploadImage handles POST /api/v1/images.
// Multipart form: image (required), sample_id (required), description.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	fh, ok := singleFile(w, r, "image")
	if !ok {
		return
	}
	uploads, err := h.readImages([]*multipart.FileHeader{fh})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	image, err := h.svc.UploadImage(r.Context(), OwnerFromContext(r.Context()),
		r.FormValue("sample_id"), r.FormValue("description"), uploads[0])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newImageResponse(image))
}

// UploadImages handles POST /api/v1/images/bulk.
// Multipart form: images (one or more), tabular_file (required), sample_id_prefix.
func (h *Handler) UploadImages(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}

	fileID, err := strconv.ParseUint(r.FormValue("tabular_file"), 10, 64)
	if err != nil || fileID == 0 {
		validationError(w, "field 'tabular_file' must be a tabular file id")
		return
	}
	uploads, err := h.readImages(formFiles(r, "images"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	images, err := h.svc.UploadImages(r.Context(), OwnerFromContext(r.Context()),
		uint(fileID), r.FormValue("sample_id_prefix"), uploads)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newImageResponses(images))
}

// ListImages handles GET /api/v1/images with optional filters sample_id,
// tabular_file, metadata_label and metadata_value.
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.ImageFilter{
		SampleID:      query.Get("sample_id"),
		MetadataLabel: query.Get("metadata_label"),
		MetadataValue: query.Get("metadata_value"),
	}
	if raw := query.Get("tabular_file"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			validationError(w, "tabular_file must be a numeric id")
			return
		}
		fileID := uint(id)
		filter.TabularFileID = &fileID
	}

	images, err := h.svc.ListImages(r.Context(), OwnerFromContext(r.Context()), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newImageResponses(images))
}

func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	image, err := h.svc.GetImage(r.Context(), OwnerFromContext(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newImageResponse(image))
}

// ImageContent streams the stored image bytes.
func (h *Handler) ImageContent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	image, body, err := h.svc.OpenImage(r.Context(), OwnerFromContext(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(image.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": image.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.log.Warn("Failed to stream image %d: %v", id, err)
	}
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteImage(r.Context(), OwnerFromContext(r.Context()), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type metadataRequest struct {
	Metadata []ingest.MetadataItem `json:"metadata"`
}

// AddImageMetadata handles POST /api/v1/images/{id}/metadata with a JSON body
// {"metadata": [{"label": ..., "value": ...}]}.
func (h *Handler) AddImageMetadata(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req metadataRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	attributes, err := h.svc.AddImageMetadata(r.Context(), OwnerFromContext(r.Context()), id, req.Metadata)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"metadata": newAttributeResponses(attributes)})
}

func (h *Handler) MetadataLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.svc.MetadataLabels(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"labels": labels})
}

func (h *Handler) MetadataValues(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")
	values, err := h.svc.MetadataValues(r.Context(), OwnerFromContext(r.Context()), label)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"label": label, "values": values})
}
