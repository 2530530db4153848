// Package discovery derives a zone's primary master and authoritative
// nameserver set from its SOA and NS records.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/tdns-update/pkg/resolver"
)

// ErrNoAuthorities is returned when, after filtering exclusions, no
// authority endpoints remain.
var ErrNoAuthorities = errors.New("no authority endpoints remain after filtering")

// Endpoint is one resolved (NS name, IP address) pair to be monitored
// independently.
type Endpoint struct {
	NSName string
	Addr   string
}

// Result is the outcome of discovering a zone's update and monitoring targets.
type Result struct {
	Zone       string
	Master     string // primary master address, host only; caller appends :53
	MasterName string // SOA MNAME
	Endpoints  []Endpoint
}

// Options configures Discover.
type Options struct {
	// Zone overrides automatic derivation from Name (strip the leftmost label).
	Zone string
	// Server overrides the SOA-derived primary master.
	Server string
	// IncludeV6 resolves AAAA addresses for each NS name in addition to A.
	IncludeV6 bool
	// Exclude lists addresses (bare IPs) to drop from the endpoint set.
	Exclude []string
}

// Discover derives the zone for name, looks up its SOA and NS records via
// rslv, resolves every NS name to one endpoint per address, and filters out
// excluded addresses.
func Discover(ctx context.Context, rslv *resolver.Resolver, name string, opts Options) (*Result, error) {
	zone := opts.Zone
	if zone == "" {
		zone = deriveZone(name)
	}
	zone = dns.Fqdn(zone)

	soa, err := rslv.SOA(ctx, zone)
	if err != nil {
		return nil, fmt.Errorf("looking up SOA for %s: %w", zone, err)
	}
	if soa == nil {
		return nil, fmt.Errorf("no SOA found for zone %s", zone)
	}

	master := opts.Server
	if master == "" {
		master = soa.Ns
	}

	nsRecords, err := rslv.NS(ctx, zone)
	if err != nil {
		return nil, fmt.Errorf("looking up NS for %s: %w", zone, err)
	}
	if len(nsRecords) == 0 {
		return nil, fmt.Errorf("no NS records found for zone %s", zone)
	}

	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, ip := range opts.Exclude {
		excluded[ip] = struct{}{}
	}

	var endpoints []Endpoint
	for _, ns := range nsRecords {
		addrs, err := rslv.Addresses(ctx, ns.Ns, opts.IncludeV6)
		if err != nil {
			return nil, fmt.Errorf("resolving addresses for %s: %w", ns.Ns, err)
		}
		for _, addr := range addrs {
			if _, skip := excluded[addr]; skip {
				continue
			}
			endpoints = append(endpoints, Endpoint{NSName: ns.Ns, Addr: addr})
		}
	}

	if len(endpoints) == 0 {
		return nil, ErrNoAuthorities
	}

	return &Result{Zone: zone, Master: master, MasterName: soa.Ns, Endpoints: endpoints}, nil
}

// deriveZone strips the leftmost label of name to produce its parent zone.
func deriveZone(name string) string {
	fqdn := dns.Fqdn(name)
	labels := dns.SplitDomainName(fqdn)
	if len(labels) <= 1 {
		return fqdn
	}
	return strings.Join(labels[1:], ".") + "."
}
