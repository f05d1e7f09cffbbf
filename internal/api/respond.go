package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"lemiel/internal/links"
	"lemiel/internal/middleware"
	"lemiel/internal/model"
)

const maxBodyBytes = 1 << 20

// errorResponse - тело ответа с ошибкой
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor сопоставляет ошибку предметной области с HTTP-статусом
func statusFor(err error) int {
	switch {
	case model.IsValidation(err), errors.Is(err, errBadRequest),
		errors.Is(err, links.ErrInvalidLink), errors.Is(err, links.ErrHostNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case model.IsDuplicate(err), errors.Is(err, model.ErrSelfRemoval):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError пишет ошибку в формате {"error": "..."}
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		message = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: message})
}

var errBadRequest = errors.New("bad request")

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, r.PathValue(name))
	}
	return value, nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	value, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, r.PathValue(name))
	}
	return value, nil
}

// adminName - имя пользователя, объявленное мини-приложением
func adminName(r *http.Request) string {
	return middleware.UsernameFromRequest(r)
}
