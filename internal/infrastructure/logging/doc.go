// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Setting Config.File tees every entry into a size-rotated JSON file
// managed by lumberjack.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Request sent", zap.String("url", u))
//	logger.Error("Retry attempts exhausted", zap.Error(err))
package logging
