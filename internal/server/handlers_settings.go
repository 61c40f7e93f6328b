package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/avirta/brandscope/internal/models"
)

const maskedKey = "••••••••"

// handleCredentialsGet reports which models have a key configured without
// echoing the secrets back.
func (s *Server) handleCredentialsGet(w http.ResponseWriter, r *http.Request) {
	creds, err := s.store.Credentials()
	if err != nil {
		slog.Error("failed to load credentials", "error", err)
		jsonError(w, "Failed to load credentials", 500)
		return
	}

	masked := make(map[string]string, len(creds))
	for modelID, apiKey := range creds {
		if strings.TrimSpace(apiKey) == "" {
			masked[modelID] = ""
		} else {
			masked[modelID] = maskedKey
		}
	}
	jsonResponse(w, map[string]any{"apiKeys": masked})
}

// handleCredentialsPut updates the keys present in the request body; models
// absent from the body keep their stored key. Sending the mask placeholder
// also leaves a key untouched, so a round-tripped settings form is harmless.
func (s *Server) handleCredentialsPut(w http.ResponseWriter, r *http.Request) {
	var incoming models.CredentialSet
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		jsonError(w, "Invalid request body", 400)
		return
	}

	update := make(models.CredentialSet, len(incoming))
	for modelID, apiKey := range incoming {
		if !models.KnownModel(modelID) {
			jsonError(w, "Unknown model: "+modelID, 400)
			return
		}
		if apiKey == maskedKey {
			continue
		}
		update[modelID] = apiKey
	}

	if err := s.store.SetCredentials(update); err != nil {
		slog.Error("failed to save credentials", "error", err)
		jsonError(w, "Failed to save credentials", 500)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings()
	if err != nil {
		slog.Error("failed to load settings", "error", err)
		jsonError(w, "Failed to load settings", 500)
		return
	}
	jsonResponse(w, settings)
}

func (s *Server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		jsonError(w, "Invalid request body", 400)
		return
	}

	for _, modelID := range settings.DefaultModels {
		if !models.KnownModel(modelID) {
			jsonError(w, "Unknown model: "+modelID, 400)
			return
		}
	}

	if err := s.store.SetSettings(settings); err != nil {
		slog.Error("failed to save settings", "error", err)
		jsonError(w, "Failed to save settings", 500)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
