package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"soundscape/logger"
	"soundscape/model"
)

// apiResponse is the JSON envelope every endpoint answers with.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, apiResponse{Success: true, Data: data})
}

// respondList includes the result count alongside the data, matching the
// shape list and search consumers expect.
func respondList(w http.ResponseWriter, data interface{}, count int) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data, Count: &count})
}

func respondMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: message})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Error: message})
}

// respondFailure maps the catalog error kinds to HTTP statuses: caller
// faults to 400, unresolved ids to 404, everything else to 500.
func respondFailure(w http.ResponseWriter, err error) {
	switch {
	case model.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respondError(w, http.StatusNotFound, "sound not found")
	default:
		logger.Error("request failed", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
