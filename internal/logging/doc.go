// Package logging configures structured slog output for simscore.
// By default logs go to stderr. With --debug or logging.file set, JSON logs
// are also written to a size-rotated file under ~/.simscore/logs/, which
// `simscore logs` can tail and follow.
package logging
