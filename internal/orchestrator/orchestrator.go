// Package orchestrator sequences update submission and propagation
// monitoring into the top-level operation the CLI exposes.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gitlab.bluewillows.net/root/tdns-update/pkg/discovery"
	"gitlab.bluewillows.net/root/tdns-update/pkg/dnsupdate"
	"gitlab.bluewillows.net/root/tdns-update/pkg/monitor"
	"gitlab.bluewillows.net/root/tdns-update/pkg/resolver"
	"gitlab.bluewillows.net/root/tdns-update/pkg/retry"
	"gitlab.bluewillows.net/root/tdns-update/pkg/transport"
)

// Request is everything the orchestrator needs to run one update-and-confirm
// invocation.
type Request struct {
	Operation dnsupdate.Operation
	Key       *dnsupdate.TSIGKey

	ResolverAddr string
	MasterAddr   string // overrides SOA-derived master when non-empty
	ForceTCP     bool
	SkipUpdate   bool // --no-op: skip submission, monitor only
	SkipWait     bool // --no-wait: submit only, skip monitor

	DiscoveryOpts discovery.Options
	Expectation   monitor.Expectation

	QueryTimeout      time.Duration
	Interval          time.Duration
	Deadline          time.Duration
	SubmitRetryBudget time.Duration // 0 means submitterRetryPolicy's default attempt cap
	ProbeOnePerNS     bool
	AllowTCPUpgrade   bool

	Logger *slog.Logger
}

// ErrConvergenceTimeout is returned when the deadline elapsed before every
// authority endpoint reached the Satisfied state.
var ErrConvergenceTimeout = errors.New("convergence timeout")

// discover is a package-level seam so tests can substitute a fixed zone
// discovery result instead of a real resolver round trip.
var discover = discovery.Discover

// Result is the combined outcome of submission and monitoring.
type Result struct {
	Submitted bool
	Report    *monitor.Report
}

// Run executes the sequenced update-then-monitor operation described by req.
func Run(ctx context.Context, req Request) (*Result, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rslvAddr := req.ResolverAddr
	if rslvAddr == "" {
		addr, err := resolver.SystemConfig()
		if err != nil {
			return nil, fmt.Errorf("determining recursive resolver: %w", err)
		}
		rslvAddr = addr
	}

	rslv := resolver.New(rslvAddr, transport.New(transport.UDP, req.QueryTimeout), req.QueryTimeout)

	disc, err := discover(ctx, rslv, req.Operation.Name, req.DiscoveryOpts)
	if err != nil {
		return nil, fmt.Errorf("discovering zone authorities: %w", err)
	}
	req.Operation.Zone = disc.Zone

	result := &Result{}

	if !req.SkipUpdate {
		master := req.MasterAddr
		if master == "" {
			master = disc.Master
		}

		msg, err := dnsupdate.Build(req.Operation)
		if err != nil {
			return nil, fmt.Errorf("building update message: %w", err)
		}

		submitter := dnsupdate.NewSubmitter(master, req.Key, req.QueryTimeout, logger)

		err = retry.Do(ctx, submitterRetryPolicy(req.SubmitRetryBudget), func() (retry.Outcome, error) {
			err := submitter.Submit(ctx, msg, req.ForceTCP)
			if err == nil {
				return retry.Ok, nil
			}
			if dnsupdate.IsRetryable(err) {
				return retry.Transient, err
			}
			return retry.Fatal, err
		})
		if err != nil {
			return nil, fmt.Errorf("submitting update: %w", err)
		}
		result.Submitted = true
		logger.Info("update submitted", slog.String("zone", disc.Zone), slog.String("master", master))
	}

	if req.SkipWait {
		return result, nil
	}

	endpoints := disc.Endpoints
	if req.ProbeOnePerNS {
		endpoints = firstAddrPerNS(endpoints)
	}

	monCtx := ctx
	var cancel context.CancelFunc
	if req.Deadline > 0 {
		monCtx, cancel = context.WithTimeout(ctx, req.Deadline)
		defer cancel()
	}

	m := monitor.New(monitor.Config{
		Expectation:     req.Expectation,
		Endpoints:       endpoints,
		Interval:        req.Interval,
		QueryTimeout:    req.QueryTimeout,
		RetryPolicy:     retry.DefaultPolicy(),
		Logger:          logger,
		AllowTCPUpgrade: req.AllowTCPUpgrade,
	})

	report, err := m.Run(monCtx)
	result.Report = report
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return result, fmt.Errorf("monitoring propagation: %w", err)
	}
	if report != nil && !report.Converged() {
		return result, fmt.Errorf("%s: %w", report.Summary(), ErrConvergenceTimeout)
	}

	return result, nil
}

func submitterRetryPolicy(deadline time.Duration) retry.Policy {
	p := retry.DefaultPolicy()
	if deadline > 0 {
		p.Deadline = time.Now().Add(deadline)
	}
	p.MaxAttempts = 5
	return p
}

// firstAddrPerNS keeps only the first endpoint seen for each NS name,
// the weaker source-compatible monitoring behavior selectable via
// --probe-one-per-ns.
func firstAddrPerNS(endpoints []discovery.Endpoint) []discovery.Endpoint {
	seen := make(map[string]bool, len(endpoints))
	out := make([]discovery.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if seen[ep.NSName] {
			continue
		}
		seen[ep.NSName] = true
		out = append(out, ep)
	}
	return out
}
