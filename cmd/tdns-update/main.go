// Command tdns-update submits an RFC 2136 DNS UPDATE to a zone's primary
// master and waits for the resulting RRset to propagate to every
// authoritative nameserver, or queries a name recursively.
package main

import (
	"fmt"
	"log/slog"
	"os"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "tdns-update:", err)
	}
	os.Exit(exitCodeFor(err))
}

// setupLogger builds the structured logger used throughout every package,
// selecting a JSON or text handler by format, and a level from levelName
// ("debug", "info", "warn", "error"), with verbose forcing debug regardless.
func setupLogger(format, levelName string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
