package logger

import (
	"log/slog"
	"os"
)

// L is the shared structured logger. Server and CLI entry points may
// swap it via Set; everything else logs through it as-is.
var L = slog.New(slog.NewTextHandler(os.Stdout, nil))

// Set replaces the shared logger. A nil argument is ignored.
func Set(l *slog.Logger) {
	if l != nil {
		L = l
	}
}
