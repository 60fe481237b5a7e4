// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Error and confirmation responses always look like:
//
//	{ "message": "Student not found" }
package response

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope returned for errors and confirmations.
// Success responses may return any other JSON shape (a student, a list…).
type Response struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// NoContent writes a bodiless 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Message wraps a human-readable text into our standard Response shape.
func Message(text string) Response {
	return Response{Message: text}
}

// GeneralError wraps any Go error into our standard Response shape.
//
//	response.WriteJSON(w, http.StatusInternalServerError,
//	    response.GeneralError(err))
func GeneralError(err error) Response {
	return Response{Message: err.Error()}
}
