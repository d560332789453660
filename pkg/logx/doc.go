// Package logx configures socialpress's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//
// Loggers are plain values threaded through constructors; there is no
// package-level default logger.
package logx
