package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/studyshare/backend/internal/ctxkeys"
	"github.com/studyshare/backend/internal/response"
	"github.com/studyshare/backend/internal/service"
)

// errorResponder writes errors as {"error": ...} with the status for their kind.
// Internal errors are reported as "Internal Server Error" except in
// development, where the raw error is sent.
type errorResponder struct {
	isDev bool
}

var kindStatus = map[service.Kind]int{
	service.KindValidation:      http.StatusBadRequest,
	service.KindUnauthenticated: http.StatusUnauthorized,
	service.KindForbidden:       http.StatusForbidden,
	service.KindNotFound:        http.StatusNotFound,
	service.KindConflict:        http.StatusConflict,
	service.KindInternal:        http.StatusInternalServerError,
}

func (e errorResponder) write(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.KindOf(err)
	status := kindStatus[kind]

	message := "Internal Server Error"
	var svcErr *service.Error
	if kind != service.KindInternal && errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	if kind == service.KindInternal {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", ctxkeys.RequestID(r.Context()),
		)
		if e.isDev {
			message = err.Error()
		}
	}

	response.Error(w, status, message)
}
