package http

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/AlibekovAA/community-board/internal/common/constants"
)

const traceIDHeader = "X-Trace-ID"

var traceIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{8,64}$`)

// TraceIDMiddleware reuses a well-formed inbound X-Trace-ID or mints one.
func TraceIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceIDHeader)
		if !traceIDPattern.MatchString(traceID) {
			traceID = generateTraceID()
		}

		w.Header().Set(traceIDHeader, traceID)

		ctx := context.WithValue(r.Context(), constants.TraceIDKey, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func generateTraceID() string {
	return uuid.NewString()
}
