package utils

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope of every JSON answer. Failures carry their
// details under Errors and never set Data.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// ResponseJSON writes JSON response with custom status code
func ResponseJSON(w http.ResponseWriter, code int, status bool, message string, data, errors any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(Response{
		Status:  status,
		Message: message,
		Data:    data,
		Errors:  errors,
	})
}

func fail(w http.ResponseWriter, code int, message string, details any) {
	ResponseJSON(w, code, false, message, nil, details)
}

// 200
func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusOK, true, message, data, nil)
}

// 201, a new charge was stored
func ResponseCreated(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusCreated, true, message, data, nil)
}

func ResponseBadRequest(w http.ResponseWriter, message string, errors any) {
	fail(w, http.StatusBadRequest, message, errors)
}

func ResponseUnauthorized(w http.ResponseWriter, message string) {
	fail(w, http.StatusUnauthorized, message, nil)
}

func ResponseForbidden(w http.ResponseWriter, message string) {
	fail(w, http.StatusForbidden, message, nil)
}

func ResponseNotFound(w http.ResponseWriter, message string) {
	fail(w, http.StatusNotFound, message, nil)
}

// ResponseConflict reports a lifecycle transition refused by the charge state.
func ResponseConflict(w http.ResponseWriter, message string, errors any) {
	fail(w, http.StatusConflict, message, errors)
}

// ResponseUnprocessable reports a well-formed request carrying a code that
// failed verification.
func ResponseUnprocessable(w http.ResponseWriter, message string, errors any) {
	fail(w, http.StatusUnprocessableEntity, message, errors)
}

func ResponseInternalError(w http.ResponseWriter, message string) {
	fail(w, http.StatusInternalServerError, message, nil)
}
