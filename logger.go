package match

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLogger allows setting a custom logger
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	logger = l
}
