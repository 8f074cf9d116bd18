package web

// errors.go provides unified error responses for the web layer.
//
// Every failure goes through respondError, which
//  1. maps the error with core.MapError to a message and support code,
//  2. logs the technical error with the request id for correlation,
//  3. picks the HTTP status from the code, and
//  4. writes JSON for API routes or a small HTML page for the report form.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sheetnorm/internal/core"
	"github.com/JonMunkholm/sheetnorm/internal/logging"
)

// ErrorResponse is the JSON body of an error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and replies with its user-facing form.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	status := statusFor(err, msg.Code)

	logger := logging.FromContext(r.Context()).With(
		"path", r.URL.Path,
		"status", status,
		"code", msg.Code,
	)
	switch {
	case !core.IsUserFacing(err):
		logger.Error("unexpected error", "error", err.Error())
	case status >= http.StatusInternalServerError:
		logger.Error("request error", "error", err.Error())
	default:
		logger.Info("request rejected", "error", err.Error())
	}

	if wantsJSON(r) {
		writeJSON(w, r, status, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	errorPage(msg).Render(r.Context(), w)
}

// statusFor maps a support code to an HTTP status.
func statusFor(err error, code string) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}

	switch code {
	case "SCH001", "DB008":
		return http.StatusNotFound
	case "FILE001":
		return http.StatusRequestEntityTooLarge
	case "FILE006":
		return http.StatusUnsupportedMediaType
	case "UPL001":
		return http.StatusTooManyRequests
	case "UPL002":
		return http.StatusServiceUnavailable
	case "UPL005":
		return http.StatusGatewayTimeout
	case "DB009":
		return http.StatusNotImplemented
	}

	switch {
	case strings.HasPrefix(code, "VAL"):
		return http.StatusUnprocessableEntity
	case strings.HasPrefix(code, "SCH"),
		strings.HasPrefix(code, "FILE"),
		strings.HasPrefix(code, "UPL"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// wantsJSON reports whether the client should get a JSON error body.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
