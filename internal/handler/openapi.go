package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIHandler serves the API description. The document is marshalled
// once on first request.
type OpenAPIHandler struct {
	doc  *openapi3.T
	once sync.Once
	body []byte
	err  error
}

// NewOpenAPIHandler creates a new OpenAPIHandler for doc.
func NewOpenAPIHandler(doc *openapi3.T) *OpenAPIHandler {
	return &OpenAPIHandler{doc: doc}
}

// ServeSpec writes the OpenAPI document as JSON.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.body, h.err = json.MarshalIndent(h.doc, "", "  ")
	})
	if h.err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render API description")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(h.body)
}
