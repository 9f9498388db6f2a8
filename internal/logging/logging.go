// Package logging builds the structured logger every component of the
// disassembler writes through. It fans a single log/slog.Logger out to a
// human-readable stderr stream and, when configured, a JSON-encoded file.
package logging

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// New builds the fanned-out logger. logPath may be "" to skip the file
// sink (the Debugging.log_path setting of spec §6).
func New(logPath string, debug bool) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}

	closer := func() error { return nil }

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		closer = f.Close
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	return logger, closer, nil
}
