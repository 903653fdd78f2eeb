// Package logger provides a simple, thread-safe logging facility.
//
// The logger supports four levels: Debug, Info, Warn, and Error.
// Each log entry includes a timestamp, level, an optional tag, and message.
// The bootstrap node tags connection logs with the remote peer address;
// the CLI tags client logs with the bootstrap address.
//
// # Basic Usage
//
// Using the default logger:
//
//	logger.Info("", "Bootstrap node listening on %s", addr)
//	logger.Info("10.0.0.7:51522", "Stored alpha")
//	logger.Warn("10.0.0.7:51522", "Dropping connection: %v", err)
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("server", "Received %s", msg)
//
// Levels can be parsed from configuration:
//
//	lvl, err := logger.ParseLevel("warn")
//
// # Thread Safety
//
// All logging operations are protected by a mutex and safe for concurrent use.
package logger
