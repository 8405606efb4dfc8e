package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/AlibekovAA/community-board/internal/common/constants"
	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	"github.com/AlibekovAA/community-board/internal/common/httpmetrics"
	"github.com/AlibekovAA/community-board/internal/common/logger"
	"github.com/AlibekovAA/community-board/internal/observability/metrics"
)

type ErrorHandler struct {
	log *logger.Logger
	// exposeInternal puts the raw error text of unexpected errors, including
	// the cause of internal domain errors, in the response; only for
	// development.
	exposeInternal bool
}

func NewErrorHandler(log *logger.Logger, exposeInternal bool) *ErrorHandler {
	return &ErrorHandler{log: log, exposeInternal: exposeInternal}
}

func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	ctx := r.Context()
	traceID := TraceIDFromContext(ctx)

	if domainErr, ok := commonerrors.AsDomainError(err); ok {
		h.handleDomainError(w, r, domainErr)
		return
	}

	logFields := logger.Fields{
		"error":  err.Error(),
		"action": "unhandled_error",
	}
	if traceID != "" {
		w.Header().Set(traceIDHeader, traceID)
	}

	h.log.WithFields(ctx, logFields).Errorf("unhandled error: %v", err)

	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(http.StatusInternalServerError),
		httpmetrics.NormalizePath(r.URL.Path),
		r.Method,
	).Inc()

	message := "internal server error"
	if h.exposeInternal {
		message = err.Error()
	}
	WriteErrorEnvelope(w, http.StatusInternalServerError, CodeInternal, message, nil, traceID)
}

func (h *ErrorHandler) handleDomainError(w http.ResponseWriter, r *http.Request, err commonerrors.DomainError) {
	ctx := r.Context()
	traceID := TraceIDFromContext(ctx)

	domainErr := err
	if traceID != "" && err.TraceID() == "" {
		domainErr = err.WithTraceID(traceID)
	}

	status := domainErr.HTTPStatus()

	logFields := logger.Fields{
		"error_code": domainErr.Code(),
		"category":   string(domainErr.Category()),
		"status":     status,
		"action":     "domain_error",
	}

	if status >= http.StatusInternalServerError {
		h.log.WithFields(ctx, logFields).Errorf("domain error: %s", domainErr.Error())
	} else if h.log.ShouldLog(logger.DEBUG) {
		h.log.WithFields(ctx, logFields).Debugf("domain error: %s", domainErr.Error())
	}

	metrics.DomainErrorsTotal.WithLabelValues(
		string(domainErr.Category()),
		domainErr.Code(),
		strconv.Itoa(status),
	).Inc()

	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(status),
		httpmetrics.NormalizePath(r.URL.Path),
		r.Method,
	).Inc()

	if traceID != "" {
		w.Header().Set(traceIDHeader, traceID)
	}

	message := domainErr.Message()
	if h.exposeInternal && domainErr.Category() == commonerrors.CategoryInternal {
		message = domainErr.Error()
	}

	WriteErrorEnvelope(w, status, domainErr.Code(), message, domainErr.Details(), domainErr.TraceID())
}

func HandleError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	NewErrorHandler(log, false).HandleError(w, r, err)
}

func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(constants.TraceIDKey).(string)
	return traceID
}
