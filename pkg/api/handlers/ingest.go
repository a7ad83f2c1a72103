package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/serverless-otel/ingestd/pkg/ingest"
	"github.com/serverless-otel/ingestd/pkg/record"
)

// IngestHandler handles the telemetry ingest endpoint.
type IngestHandler struct {
	handler *ingest.Handler
}

// NewIngestHandler creates a new ingest handler wrapping the given
// orchestrator.
func NewIngestHandler(handler *ingest.Handler) *IngestHandler {
	return &IngestHandler{handler: handler}
}

// ingestEnvelope is the optional JSON wrapper accepted in place of a raw
// text/plain body.
type ingestEnvelope struct {
	Body string `json:"body"`
}

// ingestResponse is the JSON envelope returned to the caller.
type ingestResponse struct {
	Status  string `json:"status"`
	Dataset string `json:"dataset,omitempty"`
	Segment string `json:"segment,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ingest handles POST /v1/ingest. The body is either raw text/plain or a
// JSON object of the form {"body": "..."}.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, ingestResponse{Status: "error", Error: err.Error()})
		return
	}

	result, err := h.handler.Ingest(r.Context(), body)
	if err != nil {
		WriteJSON(w, result.Status, ingestResponse{Status: "error", Error: err.Error()})
		return
	}

	WriteJSON(w, result.Status, ingestResponse{Status: "ok", Dataset: result.Dataset, Segment: result.Segment})
}

func readBody(r *http.Request) (string, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return "", &record.BodyError{Reason: "failed to read request body"}
	}

	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return string(raw), nil
	}

	var envelope ingestEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", &record.BodyError{Reason: "invalid JSON envelope"}
	}
	return envelope.Body, nil
}
