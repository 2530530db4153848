package main

import (
	"context"
	"errors"
	"fmt"

	"gitlab.bluewillows.net/root/tdns-update/internal/orchestrator"
)

// errArgument wraps flag and positional-argument validation failures so
// exitCodeFor can tell them apart from everything else without the
// subcommand parsers needing to know about exit codes themselves.
var errArgument = errors.New("argument error")

func argumentError(msg string) error {
	return fmt.Errorf("%s: %w", msg, errArgument)
}

func isArgumentError(err error) bool {
	return errors.Is(err, errArgument)
}

func isConvergenceTimeout(err error) bool {
	return errors.Is(err, orchestrator.ErrConvergenceTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}
