// Package logging provides structured logging for the VCT service.
//
// It wraps log/slog with a small configuration surface (level, format,
// output) and binds a per-request correlation ID from the context onto
// every record, so API request logs can be stitched together downstream.
package logging
