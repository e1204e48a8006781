package utils

import (
	"encoding/json"
	"net/http"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ResponseJSON writes the envelope with a custom status code
func ResponseJSON(w http.ResponseWriter, status int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// ------------- Success responses -------------

// returns 200 OK
func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// returns 201 Created
func ResponseCreated(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// ------------- Error responses -------------

// returns 400 Bad Request
func ResponseBadRequest(w http.ResponseWriter, message string, errors any) {
	ResponseJSON(w, http.StatusBadRequest, Response{Message: message, Errors: errors, Code: CodeInvalidRequest})
}

// returns 401 Unauthorized
func ResponseUnauthorized(w http.ResponseWriter, message string) {
	ResponseJSON(w, http.StatusUnauthorized, Response{Message: message, Code: CodeUnauthorized})
}

// returns 403 Forbidden
func ResponseForbidden(w http.ResponseWriter, message string) {
	ResponseJSON(w, http.StatusForbidden, Response{Message: message, Code: CodeForbidden})
}

// returns 500 Internal Server Error
func ResponseInternalError(w http.ResponseWriter, message string) {
	ResponseJSON(w, http.StatusInternalServerError, Response{Message: message, Code: CodeInternal})
}

// ResponseError renders an AppError with the status implied by its code.
func ResponseError(w http.ResponseWriter, err *AppError) {
	resp := Response{Message: err.Message, Code: err.Code}
	if len(err.Fields) > 0 {
		resp.Errors = err.Fields
	}
	ResponseJSON(w, err.Status(), resp)
}
