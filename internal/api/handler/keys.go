package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nmoreno/careerhub/internal/api/middleware"
	"github.com/nmoreno/careerhub/internal/api/response"
	"github.com/nmoreno/careerhub/internal/store"
	"github.com/nmoreno/careerhub/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// KeysHandler serves API key management. Requires the admin scope.
type KeysHandler struct {
	store store.Store
}

func NewKeysHandler(s store.Store) *KeysHandler {
	return &KeysHandler{store: s}
}

type createKeyRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

type createKeyResponse struct {
	*models.APIKey
	// Key is the raw key, shown exactly once.
	Key string `json:"key"`
}

var validScopes = map[string]bool{
	"read":  true,
	"write": true,
	"admin": true,
}

// Create handles POST /api/v1/keys.
func (h *KeysHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Name == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Key name is required", nil)
		return
	}
	if len(req.Scopes) == 0 {
		req.Scopes = []string{"read"}
	}
	for _, s := range req.Scopes {
		if !validScopes[s] {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Invalid scope: "+s, nil)
			return
		}
	}

	rawKey, err := generateRawKey()
	if err != nil {
		slog.Error("generating api key", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate key", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("hashing api key", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate key", nil)
		return
	}

	now := time.Now().UTC()
	key := &models.APIKey{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      req.Name,
		KeyHash:   string(hash),
		KeyPrefix: rawKey[:8],
		Scopes:    req.Scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateAPIKey(r.Context(), key); err != nil {
		slog.Error("creating api key", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create key", nil)
		return
	}

	response.Created(w, createKeyResponse{APIKey: key, Key: rawKey})
}

// List handles GET /api/v1/keys.
func (h *KeysHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	keys, err := h.store.ListAPIKeys(r.Context(), userID)
	if err != nil {
		slog.Error("listing api keys", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list keys", nil)
		return
	}

	response.Collection(w, keys, response.CollectionMeta{Total: len(keys)})
}

// Revoke handles DELETE /api/v1/keys/{keyID}. Soft delete; the key stops
// authenticating immediately.
func (h *KeysHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	keyID, err := uuid.Parse(chi.URLParam(r, "keyID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid key ID", nil)
		return
	}

	if err := h.store.RevokeAPIKey(r.Context(), keyID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "API key not found", nil)
			return
		}
		slog.Error("revoking api key", "error", err, "key_id", keyID)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke key", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// generateRawKey produces a "ch_"-prefixed key with 32 hex chars of entropy.
func generateRawKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "ch_" + hex.EncodeToString(buf), nil
}
