package db

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"go.mongodb.org/mongo-driver/v2/mongo"

	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	"github.com/AlibekovAA/community-board/internal/observability/metrics"
)

const uniqueViolation = "23505"

// UniqueViolation returns the violated constraint name when err is a
// Postgres unique violation.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// IsUnavailable reports whether err means the database could not be reached
// or did not answer in time, as opposed to rejecting the statement.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return false
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed)
}

func wrapFailure(err error, operation string) error {
	wrapped := fmt.Errorf("failed to %s: %w", operation, err)
	if IsUnavailable(err) {
		return commonerrors.ErrUpstreamUnavailable.WithCause(wrapped)
	}
	return wrapped
}

func HandleQueryError(err error, notFoundErr error, operation, table string, startTime time.Time) error {
	metrics.DBQueryDurationSeconds.WithLabelValues(operation, table).Observe(time.Since(startTime).Seconds())

	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFoundErr
	}
	metrics.DBQueryErrors.WithLabelValues(operation, table, fmt.Sprintf("%T", err)).Inc()
	return wrapFailure(err, operation)
}

func HandleExecError(err error, operation, table string, startTime time.Time) error {
	metrics.DBQueryDurationSeconds.WithLabelValues(operation, table).Observe(time.Since(startTime).Seconds())

	if err == nil {
		return nil
	}
	metrics.DBQueryErrors.WithLabelValues(operation, table, fmt.Sprintf("%T", err)).Inc()
	return wrapFailure(err, operation)
}

func MeasureQueryDuration(operation, table string, startTime time.Time) {
	metrics.DBQueryDurationSeconds.WithLabelValues(operation, table).Observe(time.Since(startTime).Seconds())
}
