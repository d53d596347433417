package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, data envelope) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(append(js, '\n'))
	return err
}

func (api *dashboardAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	env := envelope{"error": map[string]string{
		"code":    http.StatusText(status),
		"message": message,
	}}
	if err := writeJSON(w, status, env); err != nil {
		api.log.Error("write error response", zap.String("path", r.URL.Path), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (api *dashboardAPI) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

// failedResponse maps pipeline errors onto status codes.
func (api *dashboardAPI) failedResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrDataUnavailable):
		api.log.Warn("data unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		api.errorResponse(w, r, http.StatusServiceUnavailable, "vehicle position data is currently unavailable")
	case errors.Is(err, ErrNoPositions):
		api.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		api.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		api.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
	}
}
