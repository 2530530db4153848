package dnsupdate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/tdns-update/pkg/transport"
)

// DefaultQueryTimeout is used when a Submitter is built without an explicit timeout.
const DefaultQueryTimeout = 5 * time.Second

// Submitter sends a built UPDATE message to the primary master and
// interprets the response code.
type Submitter struct {
	master  string
	key     *TSIGKey
	logger  *slog.Logger
	timeout time.Duration
}

// NewSubmitter returns a Submitter targeting master (host or host:port),
// optionally signing with key.
func NewSubmitter(master string, key *TSIGKey, timeout time.Duration, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Submitter{master: transport.WithAddrPort(master), key: key, timeout: timeout, logger: logger}
}

// Submit signs (if a key is configured) and sends msg, using TCP when
// forceTCP is set or the message would exceed the UDP size threshold.
func (s *Submitter) Submit(ctx context.Context, msg *dns.Msg, forceTCP bool) error {
	if s.key != nil {
		s.key.ApplyToMessage(msg)
	}

	network := transport.UDP
	if forceTCP || msg.Len() > dns.MinMsgSize {
		network = transport.TCP
	}

	tr := transport.New(network, s.timeout)
	if s.key != nil {
		tr.TsigSecret = s.key.ApplyToClient(nil)
	}

	s.logger.Debug("submitting dns update",
		slog.String("master", s.master),
		slog.String("network", string(network)),
		slog.Bool("signed", s.key != nil),
	)

	resp, _, err := tr.Exchange(ctx, msg, s.master)
	if err != nil {
		if s.key != nil && (errors.Is(err, dns.ErrSig) || errors.Is(err, dns.ErrTime) ||
			errors.Is(err, dns.ErrKeyAlg) || errors.Is(err, dns.ErrSecret)) {
			return fmt.Errorf("%w: exchanging update with %s: %v", ErrAuthenticationFailed, s.master, err)
		}
		return fmt.Errorf("exchanging update with %s: %w", s.master, err)
	}
	return checkResponse(resp)
}

func checkResponse(resp *dns.Msg) error {
	if resp == nil {
		return ErrNoResponse
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
		return nil
	case dns.RcodeNotAuth:
		if resp.IsTsig() != nil {
			return fmt.Errorf("%w: %s", ErrAuthenticationFailed, dns.RcodeToString[resp.Rcode])
		}
		return &RejectedError{Rcode: resp.Rcode}
	default:
		return &RejectedError{Rcode: resp.Rcode}
	}
}

func rcodeString(rcode int) string {
	if s, ok := dns.RcodeToString[rcode]; ok {
		return s
	}
	return fmt.Sprintf("RCODE%d", rcode)
}

// IsRetryable reports whether an update-submission error is worth retrying:
// only SERVFAIL qualifies among rejected-update errors; network errors from
// the transport layer are retryable, TSIG authentication failures are not.
func IsRetryable(err error) bool {
	var rej *RejectedError
	if as, ok := err.(*RejectedError); ok {
		rej = as
	} else {
		return !errors.Is(err, ErrAuthenticationFailed)
	}
	return rej.Rcode == dns.RcodeServerFailure
}
