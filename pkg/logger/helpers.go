package logger

import (
	"time"
)

// LogRequest logs a single page request against the groups API
func LogRequest(log Logger, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		log.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		log.WarnWithFields("HTTP request client error", fields)
	case statusCode >= 500:
		log.ErrorWithFields("HTTP request server error", fields)
	default:
		log.DebugWithFields("HTTP request finished", fields)
	}
}

// LogRunStart logs the parameters of a crawl
func LogRunStart(log Logger, groupID string, mode string, workers, maxUsers int) {
	log.WithFields(map[string]interface{}{
		"group_id":  groupID,
		"mode":      mode,
		"workers":   workers,
		"max_users": maxUsers,
	}).Info("Starting member collection")
}

// LogPage logs one applied page
func LogPage(log Logger, page, entries, added, unique, processed int, nextCursor string) {
	log.DebugWithFields("Page applied", map[string]interface{}{
		"page":        page,
		"entries":     entries,
		"added":       added,
		"unique":      unique,
		"processed":   processed,
		"next_cursor": nextCursor,
	})
}

// LogFetchFailure logs the fetch error that ended a crawl
func LogFetchFailure(log Logger, groupID string, cursor string, err error) {
	log.WithError(err).WithFields(map[string]interface{}{
		"group_id": groupID,
		"cursor":   cursor,
	}).Warn("Fetch failed, stopping crawl")
}

// LogRunSummary logs the outcome of a crawl
func LogRunSummary(log Logger, fields map[string]interface{}) {
	log.InfoWithFields("Member collection finished", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(log Logger, component string, config map[string]interface{}) {
	l := log.WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Debug("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(log Logger, component string, reason string) {
	log.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Debug("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
