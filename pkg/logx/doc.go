// Package logx is a thin structured-logging layer over zerolog.
//
// It exposes a value Logger with slog-like field helpers so callers never
// import zerolog directly.
package logx
