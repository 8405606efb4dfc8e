package http

import (
	"net/http"

	"github.com/AlibekovAA/community-board/internal/common/constants"
	"github.com/AlibekovAA/community-board/internal/common/httpmetrics"
	"github.com/AlibekovAA/community-board/internal/common/logger"
)

// BuildBaseHandler wraps handler with the middleware every service shares:
// security headers, panic recovery, trace ids, body limits and request metrics.
func BuildBaseHandler(appName string, log *logger.Logger, handler http.Handler) http.Handler {
	metrics := httpmetrics.New(appName)
	recovery := RecoveryMiddleware(log)
	traceID := TraceIDMiddleware
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)
	securityHeaders := SecurityHeadersMiddleware
	csp := ContentSecurityPolicyMiddleware("")

	return securityHeaders(csp(traceID(recovery(maxRequestSize(metrics.Wrap(handler))))))
}
