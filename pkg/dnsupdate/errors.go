package dnsupdate

import "errors"

// Sentinel errors surfaced by the builder and submitter.
var (
	// ErrUnsupportedAlgorithm is returned for TSIG algorithms outside the
	// SHA-2 allowlist, including the otherwise-valid hmac-md5/hmac-sha1.
	ErrUnsupportedAlgorithm = errors.New("unsupported tsig algorithm")

	// ErrZoneMismatch is returned when a name falls outside the zone being updated.
	ErrZoneMismatch = errors.New("name is not within zone")

	// ErrUpdateRejected is returned when the primary master's response
	// rcode indicates the update was refused, wrapping the precise rcode.
	ErrUpdateRejected = errors.New("update rejected by server")

	// ErrAuthenticationFailed is returned when TSIG signing or verification fails.
	ErrAuthenticationFailed = errors.New("tsig authentication failed")

	// ErrNoResponse is returned when the exchange completed without error
	// but yielded no message.
	ErrNoResponse = errors.New("no response from server")
)

// RejectedError carries the exact rcode of a rejected update alongside the
// sentinel ErrUpdateRejected, so callers can both errors.Is it and report
// the precise code.
type RejectedError struct {
	Rcode int
}

func (e *RejectedError) Error() string {
	return "update rejected: " + rcodeString(e.Rcode)
}

func (e *RejectedError) Unwrap() error { return ErrUpdateRejected }
