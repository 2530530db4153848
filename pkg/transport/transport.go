// Package transport sends DNS messages to a single endpoint over UDP or TCP
// and returns the parsed response, with context-cancellable exchanges.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// ErrTruncated is returned when a UDP response sets the TC bit.
// Callers that want a complete answer should retry the same query over TCP.
var ErrTruncated = errors.New("response was truncated")

// Network selects the wire transport used for a query.
type Network string

const (
	UDP Network = "udp"
	TCP Network = "tcp"
)

// Transport exchanges a single DNS message with a single endpoint.
type Transport interface {
	Exchange(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error)
}

// Client is the default Transport, backed by *dns.Client.
type Client struct {
	net     Network
	timeout time.Duration

	// TsigSecret, when non-nil, is applied to the underlying dns.Client so
	// that responses carrying a matching TSIG RR are verified in place.
	TsigSecret map[string]string
}

// New returns a Client bound to the given network and per-attempt timeout.
func New(network Network, timeout time.Duration) *Client {
	return &Client{net: network, timeout: timeout}
}

// Exchange sends msg to addr and waits for a response, honoring ctx
// cancellation via a background goroutine plus a result channel, since
// *dns.Client.Exchange has no context-aware variant.
func (c *Client) Exchange(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
	dc := &dns.Client{
		Net:     string(c.net),
		Timeout: c.timeout,
	}
	if c.TsigSecret != nil {
		dc.TsigSecret = c.TsigSecret
	}

	type result struct {
		resp *dns.Msg
		rtt  time.Duration
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		resp, rtt, err := dc.Exchange(msg, addr)
		ch <- result{resp, rtt, err}
	}()

	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return r.resp, r.rtt, r.err
		}
		if c.net == UDP && r.resp != nil && r.resp.Truncated {
			return r.resp, r.rtt, ErrTruncated
		}
		return r.resp, r.rtt, nil
	}
}

// WithAddrPort appends the default DNS port if addr has none.
func WithAddrPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return fmt.Sprintf("%s:53", addr)
}
