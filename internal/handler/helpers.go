package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/server/middleware"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

// DefaultMaxBodySize bounds request bodies when no limit is configured.
const DefaultMaxBodySize = 1 << 20

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// statusFor maps a service error kind to its HTTP status.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindDuplicate:
		return http.StatusBadRequest
	case service.KindInvalidCredentials, service.KindExpired:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeServiceError renders err in the error envelope. Unclassified errors
// are logged with the request ID and answered with a fixed 500 message.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var se *service.Error
	if !errors.As(err, &se) || se.Kind == service.KindUnexpected {
		logger.ErrorContext(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	var ctx map[string]interface{}
	if len(se.Fields) > 0 {
		ctx = make(map[string]interface{}, len(se.Fields))
		for k, v := range se.Fields {
			ctx[k] = v
		}
	}
	writeError(w, statusFor(se.Kind), se.Message, ctx)
}

// readJSON decodes a bounded request body into v. Decoding failures are
// returned as validation errors that writeServiceError renders as 400, or
// 413 when the body exceeds maxBytes.
func readJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v interface{}) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		if errors.Is(err, io.EOF) {
			return &service.Error{Kind: service.KindValidation, Message: "Request body is required"}
		}
		return &service.Error{Kind: service.KindValidation, Message: "Malformed JSON request", Err: err}
	}
	return nil
}

var errBodyTooLarge = errors.New("request body too large")

// writeDecodeError renders a readJSON failure.
func writeDecodeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	writeServiceError(w, r, logger, err)
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &service.Error{
			Kind:    service.KindValidation,
			Message: fmt.Sprintf("Invalid id %q", raw),
			Fields:  map[string]string{"id": "must be an integer"},
		}
	}
	return id, nil
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing. A present but non-numeric value is a validation
// error.
func queryInt(r *http.Request, key string, defaultVal int) (int, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, &service.Error{
			Kind:    service.KindValidation,
			Message: "Validation failed",
			Fields:  map[string]string{key: "must be an integer"},
		}
	}
	return n, nil
}

// NotFound answers unknown routes with the error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Resource not found")
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s is not supported", r.Method))
}
