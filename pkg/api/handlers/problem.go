// Package handlers provides HTTP handlers for the ingestd API.
package handlers

import (
	"encoding/json"
	"net/http"
)

// Problem represents an RFC 7807 "problem details" response.
// https://tools.ietf.org/html/rfc7807
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ContentTypeProblemJSON is the Content-Type for RFC 7807 problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// WriteProblem writes an RFC 7807 problem response.
func WriteProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&Problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

// BadRequest writes a 400 Bad Request problem response.
func BadRequest(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusBadRequest, "Bad Request", detail)
}

// InternalServerError writes a 500 Internal Server Error problem response.
func InternalServerError(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

// ServiceUnavailable writes a 503 Service Unavailable problem response.
func ServiceUnavailable(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusServiceUnavailable, "Service Unavailable", detail)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
