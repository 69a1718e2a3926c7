// Package logger provides leveled console logging for sqlconn commands.
//
// # Verbosity Levels
//
// Logging behavior is controlled by two flags:
//
//   - --verbose: Shows info messages
//   - --debug: Shows all messages including debug details
//
// Warnings and errors are always shown on stderr.
//
// # File Sink
//
// When the settings file names a log_file, every message (regardless of
// verbosity) is also appended, uncolored and timestamped, to that file.
// The file is rotated by size with lumberjack:
//
//	sink := logger.NewFileSink(path, 5, 3)
//	defer sink.Close()
//	log := Logger{Verbose: verbose, Debug: debug, File: sink}
//
// Passwords and decrypted secrets must never be passed to a Logger.
package logger
