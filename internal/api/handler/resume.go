package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nmoreno/careerhub/internal/api/middleware"
	"github.com/nmoreno/careerhub/internal/api/response"
	"github.com/nmoreno/careerhub/internal/storage"
	"github.com/nmoreno/careerhub/internal/store"
	"github.com/nmoreno/careerhub/pkg/models"
)

const maxUploadBytes = 10 << 20 // 10 MiB

var allowedContentTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// ResumeHandler serves resume upload, listing, and deletion.
type ResumeHandler struct {
	store   store.Store
	storage storage.Storage
}

func NewResumeHandler(s store.Store, st storage.Storage) *ResumeHandler {
	return &ResumeHandler{store: s, storage: st}
}

// Upload handles POST /api/v1/profile/cv. Expects multipart form data with a
// "file" part. The object is written to storage first; a row insert failure
// leaves an orphan object rather than a row pointing at nothing.
func (h *ResumeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("File exceeds the %d MB limit", maxUploadBytes>>20), nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Missing file upload", nil)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, allowed := allowedContentTypes[contentType]
	if !allowed {
		response.Error(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE",
			"Only PDF and Word documents are accepted", nil)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read upload", nil)
		return
	}

	resumeID := uuid.New()
	key := fmt.Sprintf("resumes/%s/%s%s", userID, resumeID, ext)

	if err := h.storage.Put(r.Context(), key, data, contentType); err != nil {
		slog.Error("storing resume", "error", err, "user_id", userID)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store file", nil)
		return
	}

	now := time.Now().UTC()
	resume := &models.Resume{
		ID:               resumeID,
		UserID:           userID,
		OriginalFilename: sanitizeFilename(header.Filename),
		StorageKey:       key,
		ViewURL:          "/api/v1/profile/cv/" + resumeID.String(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := h.store.CreateResume(r.Context(), resume); err != nil {
		slog.Error("creating resume row", "error", err, "user_id", userID)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save resume", nil)
		return
	}

	slog.Info("resume uploaded", "resume_id", resume.ID, "user_id", userID, "bytes", len(data))
	response.Created(w, resume)
}

// List handles GET /api/v1/profile/cv.
func (h *ResumeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	resumes, err := h.store.ListResumes(r.Context(), userID)
	if err != nil {
		slog.Error("listing resumes", "error", err, "user_id", userID)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list resumes", nil)
		return
	}

	response.Collection(w, resumes, response.CollectionMeta{Total: len(resumes)})
}

// Download handles GET /api/v1/profile/cv/{resumeID}: streams the stored
// document back with its original filename.
func (h *ResumeHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	resumeID, err := uuid.Parse(chi.URLParam(r, "resumeID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid resume ID", nil)
		return
	}

	resume, err := h.store.GetResume(r.Context(), resumeID, userID)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Resume not found", nil)
		return
	}
	if err != nil {
		slog.Error("loading resume", "error", err, "resume_id", resumeID)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load resume", nil)
		return
	}

	data, err := h.storage.Fetch(r.Context(), resume.StorageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Resume file not found", nil)
		return
	}
	if err != nil {
		slog.Error("fetching resume object", "error", err, "resume_id", resumeID)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch file", nil)
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", resume.OriginalFilename))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

// Delete handles DELETE /api/v1/profile/cv/{resumeID}. The row is removed
// first; a missing storage object is tolerated so a half-deleted resume can
// always be cleaned up.
func (h *ResumeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	resumeID, err := uuid.Parse(chi.URLParam(r, "resumeID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid resume ID", nil)
		return
	}

	resume, err := h.store.GetResume(r.Context(), resumeID, userID)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Resume not found", nil)
		return
	}
	if err != nil {
		slog.Error("loading resume", "error", err, "resume_id", resumeID)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load resume", nil)
		return
	}

	if err := h.store.DeleteResume(r.Context(), resumeID, userID); err != nil {
		slog.Error("deleting resume row", "error", err, "resume_id", resumeID)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete resume", nil)
		return
	}

	if err := h.storage.Delete(r.Context(), resume.StorageKey); err != nil &&
		!errors.Is(err, storage.ErrObjectNotFound) {
		slog.Warn("deleting resume object", "error", err, "key", resume.StorageKey)
	}

	w.WriteHeader(http.StatusNoContent)
}

// sanitizeFilename strips any path components from a client-supplied name.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "resume"
	}
	return name
}
