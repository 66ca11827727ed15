package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(logger *slog.Logger, w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	errorResponseWith(logger, w, r, status, message, nil)
}

// errorResponseWith writes the error envelope plus any extra top-level keys.
func errorResponseWith(logger *slog.Logger, w http.ResponseWriter, r *http.Request, status int, message interface{}, extra jsonResponse) {
	env := jsonResponse{"error": message}
	for k, v := range extra {
		env[k] = v
	}
	if err := writeJSON(w, status, env, nil); err != nil {
		logger.ErrorContext(r.Context(), "failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

const serverErrorMessage = "the server encountered a problem and could not process your request"

func logServerError(logger *slog.Logger, r *http.Request, err error) {
	logger.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
}

func serverErrorResponse(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	logServerError(logger, r, err)
	errorResponse(logger, w, r, http.StatusInternalServerError, serverErrorMessage)
}

func badRequestResponse(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(logger, w, r, http.StatusBadRequest, err.Error())
}

// mapServiceErrorToHTTP turns engine errors into responses. Anything it does
// not recognise is a 500.
func mapServiceErrorToHTTP(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	mapServiceErrorWith(logger, w, r, err, nil)
}

// mapServiceErrorWith is mapServiceErrorToHTTP for handlers that still have
// something to report alongside the error.
func mapServiceErrorWith(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error, extra jsonResponse) {
	status, message := http.StatusInternalServerError, serverErrorMessage
	switch {
	case errors.Is(err, services.ErrNotFound):
		status, message = http.StatusNotFound, "the requested resource could not be found"

	case errors.Is(err, services.ErrSlotConflict),
		errors.Is(err, services.ErrTournamentNameConflict),
		errors.Is(err, services.ErrTournamentInvalidStatusTransition),
		errors.Is(err, services.ErrPreconditionNotMet):
		status, message = http.StatusConflict, err.Error()

	case errors.Is(err, services.ErrInvalidResult):
		status, message = http.StatusUnprocessableEntity, err.Error()

	default:
		logServerError(logger, r, err)
	}
	errorResponseWith(logger, w, r, status, message, extra)
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", paramName)
	}
	return id, nil
}
