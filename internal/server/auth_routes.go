package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brk3/habitgrid/internal/logger"
	"github.com/brk3/habitgrid/internal/storage"
	"github.com/go-chi/chi/v5"
)

func (s *Server) generateAPIKey(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	key, keyHash, err := GenerateAPIKey()
	if err != nil {
		logger.Error("Failed to generate API key", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := s.store.PutAPIKey(keyHash, userID); err != nil {
		logger.Error("Failed to store API key", "userID", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	logger.Info("API key created", "userID", userID, "keyHash", truncateHash(keyHash))
	if err := writeJSON(w, http.StatusOK, APIKeyResponse{APIKey: key}); err != nil {
		logger.Error("Failed to serialize API key", "userID", userID, "error", err)
	}
}

func (s *Server) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	hashes, err := s.store.ListAPIKeyHashes(userID)
	if err != nil {
		logger.Error("Failed to list API keys", "userID", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	resp := APIKeyListResponse{Keys: make([]string, 0, len(hashes))}
	for _, h := range hashes {
		resp.Keys = append(resp.Keys, truncateHash(h))
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize API keys", "userID", userID, "error", err)
	}
}

// revokeAPIKey deletes the caller's key whose hash starts with the given
// prefix. Ambiguous prefixes are rejected.
func (s *Server) revokeAPIKey(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	prefix := strings.TrimSuffix(chi.URLParam(r, "key_hash"), "...")
	if prefix == "" {
		writeError(w, http.StatusBadRequest, "missing key hash")
		return
	}

	hashes, err := s.store.ListAPIKeyHashes(userID)
	if err != nil {
		logger.Error("Failed to list API keys", "userID", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	var match string
	for _, h := range hashes {
		if strings.HasPrefix(h, prefix) {
			if match != "" {
				writeError(w, http.StatusBadRequest, "ambiguous key hash")
				return
			}
			match = h
		}
	}
	if match == "" {
		writeError(w, http.StatusNotFound, "api key not found")
		return
	}
	if err := s.store.DeleteAPIKey(match); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Error("Failed to delete API key", "userID", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	logger.Info("API key revoked", "userID", userID, "keyHash", truncateHash(match))
	w.WriteHeader(http.StatusNoContent)
}
