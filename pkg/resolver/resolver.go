// Package resolver issues recursive DNS queries used to bootstrap zone
// discovery: SOA, NS, and glue address lookups.
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/tdns-update/pkg/transport"
)

// DefaultResolvConf is the standard location read when no resolver address
// is configured explicitly.
const DefaultResolvConf = "/etc/resolv.conf"

// Resolver issues recursive queries against a single configured server.
type Resolver struct {
	addr      string
	transport transport.Transport
	timeout   time.Duration
}

// New returns a Resolver that queries addr (host or host:port) using the
// given transport.
func New(addr string, t transport.Transport, timeout time.Duration) *Resolver {
	return &Resolver{addr: transport.WithAddrPort(addr), transport: t, timeout: timeout}
}

// SystemConfig reads the first nameserver entry from /etc/resolv.conf, the
// way a stub resolver would, mirroring dns.ClientConfigFromFile's own
// defaults.
func SystemConfig() (string, error) {
	cfg, err := dns.ClientConfigFromFile(DefaultResolvConf)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", DefaultResolvConf, err)
	}
	if len(cfg.Servers) == 0 {
		return "", fmt.Errorf("%s lists no nameserver", DefaultResolvConf)
	}
	return cfg.Servers[0], nil
}

// Query performs a single recursive query for (name, qtype) and returns the
// answer section filtered to rrs of that type. NXDOMAIN and NODATA both
// yield an empty, non-error result.
func (r *Resolver) Query(ctx context.Context, name string, qtype uint16) ([]dns.RR, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, _, err := r.transport.Exchange(ctx, msg, r.addr)
	if err != nil {
		return nil, fmt.Errorf("querying %s %s at %s: %w", name, dns.TypeToString[qtype], r.addr, err)
	}
	if resp.Rcode == dns.RcodeNameError {
		return nil, nil
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("querying %s %s at %s: server returned %s", name, dns.TypeToString[qtype], r.addr, dns.RcodeToString[resp.Rcode])
	}

	out := make([]dns.RR, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		if rr.Header().Rrtype == qtype {
			out = append(out, rr)
		}
	}
	return out, nil
}

// SOA returns the SOA record for zone, or nil if none was found.
func (r *Resolver) SOA(ctx context.Context, zone string) (*dns.SOA, error) {
	rrs, err := r.Query(ctx, zone, dns.TypeSOA)
	if err != nil {
		return nil, err
	}
	for _, rr := range rrs {
		if soa, ok := rr.(*dns.SOA); ok {
			return soa, nil
		}
	}
	return nil, nil
}

// NS returns the NS record set for zone.
func (r *Resolver) NS(ctx context.Context, zone string) ([]*dns.NS, error) {
	rrs, err := r.Query(ctx, zone, dns.TypeNS)
	if err != nil {
		return nil, err
	}
	out := make([]*dns.NS, 0, len(rrs))
	for _, rr := range rrs {
		if ns, ok := rr.(*dns.NS); ok {
			out = append(out, ns)
		}
	}
	return out, nil
}

// Addresses resolves name's A records, and AAAA records when includeV6 is
// set, returning their text form.
func (r *Resolver) Addresses(ctx context.Context, name string, includeV6 bool) ([]string, error) {
	var out []string

	a, err := r.Query(ctx, name, dns.TypeA)
	if err != nil {
		return nil, err
	}
	for _, rr := range a {
		if rec, ok := rr.(*dns.A); ok {
			out = append(out, rec.A.String())
		}
	}

	if includeV6 {
		aaaa, err := r.Query(ctx, name, dns.TypeAAAA)
		if err != nil {
			return nil, err
		}
		for _, rr := range aaaa {
			if rec, ok := rr.(*dns.AAAA); ok {
				out = append(out, rec.AAAA.String())
			}
		}
	}

	return out, nil
}
