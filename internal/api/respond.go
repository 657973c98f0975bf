package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/soaringjerry/Talentflow/internal/middleware"
	"github.com/soaringjerry/Talentflow/internal/services"
	"github.com/soaringjerry/Talentflow/internal/utils"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Message string               `json:"message"`
	Errors  services.FieldErrors `json:"errors,omitempty"`
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error onto a status code and the {"message"} body.
// Internal failures are logged with their stack and answered with a generic message.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		se = services.NewInternalError("unexpected error", err).(*services.ServiceError)
	}
	status := statusFor(se.Code)
	if status == http.StatusInternalServerError {
		rt.log.Error("request failed",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(se),
			zap.ByteString("stack", se.Stack))
		writeJSON(w, status, errorBody{Message: utils.T(middleware.LocaleFromContext(r.Context()), "error.internal")})
		return
	}
	writeJSON(w, status, errorBody{Message: se.Message, Errors: se.Fields})
}

func (rt *Router) writeKey(w http.ResponseWriter, r *http.Request, status int, key string) {
	writeJSON(w, status, errorBody{Message: utils.T(middleware.LocaleFromContext(r.Context()), key)})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt parses an integer query parameter; anything unparsable yields 0.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
