package utils

import (
	"encoding/json"
	"net/http"

	"krishi-setu/pkg/apperror"
)

type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
	Errors     any    `json:"errors,omitempty"`
	Stack      string `json:"stack,omitempty"`
}

// ResponseJSON writes the envelope with the given status code.
func ResponseJSON(w http.ResponseWriter, code int, resp Response) {
	resp.StatusCode = code
	resp.Success = code < http.StatusBadRequest

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

// ------------- Success responses -------------

// returns 200 OK
func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusOK, Response{Message: message, Data: data})
}

// returns 201 Created
func ResponseCreated(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusCreated, Response{Message: message, Data: data})
}

// ResponseError writes err using its apperror kind. Stacks of internal
// errors are only exposed when debug is set.
func ResponseError(w http.ResponseWriter, err error, debug bool) {
	appErr := apperror.From(err)

	resp := Response{Message: appErr.Message, Errors: appErr.Errors}
	if resp.Errors == nil {
		resp.Errors = appErr.Message
	}
	if debug && appErr.Kind == apperror.KindInternal {
		resp.Stack = appErr.Stack()
	}

	ResponseJSON(w, appErr.Kind.Status(), resp)
}
