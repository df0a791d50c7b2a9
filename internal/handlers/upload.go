package handlers

import (
	"net/http"

	"github.com/ecotrack/waste-server/internal/services"
	"go.uber.org/zap"
)

// UploadHandler accepts photo uploads for waste and cleaned-area images.
type UploadHandler struct {
	blobs  *services.BlobStore
	max    int64
	logger *zap.SugaredLogger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(blobs *services.BlobStore, maxBytes int64, logger *zap.SugaredLogger) *UploadHandler {
	return &UploadHandler{blobs: blobs, max: maxBytes, logger: logger}
}

// Upload handles POST /api/v1/uploads
// Multipart form with a single "file" part; must be an image and within
// the size limit. Responds with the public URL of the stored blob.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.max+1024)

	if err := r.ParseMultipartForm(h.max); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or oversized multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	url, err := h.blobs.Save(header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"url": url})
}
