// Package monitor concurrently polls every authoritative nameserver of a
// zone until the observed RRset matches a declared expectation on all of
// them, or an overall deadline expires.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/tdns-update/pkg/discovery"
	"gitlab.bluewillows.net/root/tdns-update/pkg/dnsupdate"
	"gitlab.bluewillows.net/root/tdns-update/pkg/retry"
	"gitlab.bluewillows.net/root/tdns-update/pkg/transport"
)

// Config parameterizes a single monitoring run.
type Config struct {
	Expectation  Expectation
	Endpoints    []discovery.Endpoint
	Interval     time.Duration
	QueryTimeout time.Duration
	RetryPolicy  retry.Policy
	Logger       *slog.Logger

	// AllowTCPUpgrade permits retrying a truncated UDP response over TCP.
	AllowTCPUpgrade bool
}

// Monitor drives the per-endpoint probe goroutines for one Config.
type Monitor struct {
	cfg Config
	tr  transport.Transport // overridable for tests
}

// New returns a Monitor for cfg, defaulting unset fields.
func New(cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 3 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Monitor{cfg: cfg, tr: transport.New(transport.UDP, cfg.QueryTimeout)}
}

// WithTransport overrides the transport used for probes, for tests.
func (m *Monitor) WithTransport(tr transport.Transport) *Monitor {
	m.tr = tr
	return m
}

// Run probes every configured endpoint concurrently until all are Satisfied
// or ctx is done (the caller is expected to attach the overall deadline to
// ctx). It always returns a Report; err is non-nil only when ctx's deadline
// or cancellation is what ended the run before convergence.
func (m *Monitor) Run(ctx context.Context) (*Report, error) {
	results := make([]EndpointStatus, len(m.cfg.Endpoints))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, ep := range m.cfg.Endpoints {
		results[i] = EndpointStatus{Endpoint: ep, State: Pending}
		wg.Add(1)
		go func(i int, ep discovery.Endpoint) {
			defer wg.Done()
			final := m.runEndpoint(ctx, ep)
			mu.Lock()
			results[i] = final
			mu.Unlock()
		}(i, ep)
	}

	wg.Wait()

	report := &Report{Expectation: m.cfg.Expectation, Endpoints: results}
	if ctx.Err() != nil && !report.Converged() {
		return report, ctx.Err()
	}
	return report, nil
}

func (m *Monitor) runEndpoint(ctx context.Context, ep discovery.Endpoint) EndpointStatus {
	status := EndpointStatus{Endpoint: ep, State: Pending}
	addr := transport.WithAddrPort(ep.Addr)

	for {
		if ctx.Err() != nil {
			return status
		}

		observed, present, outcome, err := m.probe(ctx, addr)
		if outcome == retry.Fatal && ctx.Err() != nil {
			// The deadline cut this probe off; keep the last known state.
			return status
		}
		status.Attempts++
		status.LastErr = err

		switch outcome {
		case retry.Ok:
			status.Observed = observed
			if m.cfg.Expectation.Satisfied(observed, present) {
				status.State = Satisfied
				return status
			}
			status.State = Mismatched

		case retry.Transient:
			status.State = Retrying

		case retry.Fatal:
			status.State = Mismatched
			return status
		}

		if !m.sleep(ctx, m.backoffFor(status.State)) {
			return status
		}
	}
}

func (m *Monitor) backoffFor(state State) time.Duration {
	if state == Retrying {
		p := m.cfg.RetryPolicy
		if p.InitialDelay <= 0 {
			p = retry.DefaultPolicy()
		}
		return jitter(p.InitialDelay)
	}
	return jitter(m.cfg.Interval)
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(rand.Int64N(int64(d)/4+1))
}

func (m *Monitor) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// probe issues one query for the expectation's (name, type) against addr,
// clearing the RD bit (authoritative servers should answer without
// recursing), and classifies the result.
func (m *Monitor) probe(ctx context.Context, addr string) (dnsupdate.RRSet, bool, retry.Outcome, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(m.cfg.Expectation.Name), m.cfg.Expectation.Type)
	msg.RecursionDesired = false

	resp, _, err := m.tr.Exchange(ctx, msg, addr)
	if err != nil {
		if errors.Is(err, transport.ErrTruncated) && m.cfg.AllowTCPUpgrade {
			tcpTr := transport.New(transport.TCP, m.cfg.QueryTimeout)
			resp, _, err = tcpTr.Exchange(ctx, msg, addr)
			if err != nil {
				return dnsupdate.RRSet{}, false, retry.Transient, err
			}
		} else if ctx.Err() != nil {
			return dnsupdate.RRSet{}, false, retry.Fatal, err
		} else {
			return dnsupdate.RRSet{}, false, retry.Transient, err
		}
	}

	return classify(resp, m.cfg.Expectation.Name, m.cfg.Expectation.Type)
}

func classify(resp *dns.Msg, name string, qtype uint16) (dnsupdate.RRSet, bool, retry.Outcome, error) {
	if resp == nil {
		return dnsupdate.RRSet{}, false, retry.Transient, errors.New("no response")
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
		if len(resp.Answer) == 0 {
			return dnsupdate.RRSet{}, false, retry.Ok, nil
		}
		var records []dnsupdate.Record
		for _, rr := range resp.Answer {
			if rr.Header().Rrtype != qtype {
				// A CNAME (or anything else) when a specific type was
				// requested does not satisfy the expectation for that type.
				continue
			}
			records = append(records, dnsupdate.RecordFromRR(rr))
		}
		if len(records) == 0 {
			return dnsupdate.RRSet{}, true, retry.Ok, nil
		}
		return dnsupdate.RRSetFromRecords(records, 0), true, retry.Ok, nil

	case dns.RcodeNameError:
		return dnsupdate.RRSet{}, false, retry.Ok, nil

	case dns.RcodeServerFailure, dns.RcodeRefused, dns.RcodeNotAuth, dns.RcodeNotZone:
		return dnsupdate.RRSet{}, false, retry.Transient, errorFromRcode(resp.Rcode)

	case dns.RcodeFormatError:
		return dnsupdate.RRSet{}, false, retry.Fatal, errorFromRcode(resp.Rcode)

	default:
		return dnsupdate.RRSet{}, false, retry.Transient, errorFromRcode(resp.Rcode)
	}
}

func errorFromRcode(rcode int) error {
	return errors.New("authority returned " + dns.RcodeToString[rcode])
}
