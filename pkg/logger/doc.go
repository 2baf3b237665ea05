// Package logger provides a structured logging interface for roparse.
//
// It wraps zerolog with a colored console writer on stderr and optional
// JSON output to a file. Progress output on stdout is never interleaved
// with log lines.
//
// Basic Usage:
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("group_id", "12345")
//	log.Info("Starting member collection")
//
// Components receive a Logger explicitly. Tests pass NewTestLogger to
// capture messages or NewNopLogger to discard them.
package logger
