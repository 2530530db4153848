package main

import (
	"errors"

	"gitlab.bluewillows.net/root/tdns-update/pkg/discovery"
	"gitlab.bluewillows.net/root/tdns-update/pkg/dnsupdate"
)

// Exit codes distinguish the error kinds named in this repository's error
// handling design: argument errors, discovery failures, rejected updates,
// TSIG failures, and convergence timeouts all get a distinct code so a
// calling script can branch on $?.
const (
	exitOK                  = 0
	exitUnknown             = 1
	exitArgumentError       = 2
	exitDiscoveryError      = 3
	exitUpdateRejected      = 4
	exitAuthenticationError = 5
	exitConvergenceTimeout  = 6
)

func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	switch {
	case errors.Is(err, dnsupdate.ErrAuthenticationFailed):
		return exitAuthenticationError
	case errors.Is(err, dnsupdate.ErrUpdateRejected):
		return exitUpdateRejected
	case errors.Is(err, discovery.ErrNoAuthorities):
		return exitDiscoveryError
	case isConvergenceTimeout(err):
		return exitConvergenceTimeout
	case isArgumentError(err):
		return exitArgumentError
	default:
		return exitUnknown
	}
}
