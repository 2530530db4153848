package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/tdns-update/internal/cliconfig"
	"gitlab.bluewillows.net/root/tdns-update/internal/orchestrator"
	"gitlab.bluewillows.net/root/tdns-update/internal/statusserver"
	"gitlab.bluewillows.net/root/tdns-update/pkg/discovery"
	"gitlab.bluewillows.net/root/tdns-update/pkg/dnsupdate"
	"gitlab.bluewillows.net/root/tdns-update/pkg/monitor"
)

type updateOptions struct {
	zone     string
	server   string
	resolver string
	ttl      uint32
	key      string
	keyFile  string
	exclude  []string
	tcp      bool
	noWait   bool
	noOp     bool

	create        bool
	append        bool
	deleteRRset   bool
	deleteName    bool
	deleteRecords bool

	metricsAddr     string
	queryTimeout    time.Duration
	retryBudget     time.Duration
	interval        time.Duration
	timeout         time.Duration
	ipv6            bool
	probeOnePerNS   bool
	allowTCPUpgrade bool
}

func newUpdateCommand(root *rootOptions) *cobra.Command {
	var opts updateOptions

	cmd := &cobra.Command{
		Use:   "update <name> <data-spec>",
		Short: "Submit an RFC 2136 UPDATE and wait for it to propagate",
		Long: `update submits an RFC 2136 DNS UPDATE to a zone's primary master and, unless
--no-wait is given, polls every authoritative nameserver until the resulting
RRset is observable everywhere.

data-spec has the form TYPE:item1,item2,... for --create/--append/--delete-records,
or a bare TYPE for --delete-rrset/--delete-name.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, &opts, root, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.zone, "zone", "", "zone to update (default: derived from name)")
	f.StringVar(&opts.server, "server", "", "update master address (default: zone's SOA MNAME)")
	f.StringVar(&opts.resolver, "resolver", "", "recursive resolver used for discovery (default: /etc/resolv.conf)")
	f.Uint32Var(&opts.ttl, "ttl", 3600, "TTL for created or appended records")
	f.StringVar(&opts.key, "key", "", "TSIG key as name:algorithm:base64-secret")
	f.StringVar(&opts.keyFile, "key-file", "", "file holding a TSIG key as name:algorithm:base64-secret")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "authority address to skip monitoring (repeatable)")
	f.BoolVar(&opts.tcp, "tcp", false, "force TCP for the update submission")
	f.BoolVar(&opts.noWait, "no-wait", false, "submit the update without waiting for propagation")
	f.BoolVar(&opts.noOp, "no-op", false, "skip submission; only monitor for the expected state")

	f.BoolVar(&opts.create, "create", false, "create records, requiring none exist yet")
	f.BoolVar(&opts.append, "append", false, "append records to an existing RRset")
	f.BoolVar(&opts.deleteRRset, "delete-rrset", false, "delete the entire RRset at (name, type)")
	f.BoolVar(&opts.deleteName, "delete-name", false, "delete every RRset at name")
	f.BoolVar(&opts.deleteRecords, "delete-records", false, "delete specific records from an RRset")
	cmd.MarkFlagsMutuallyExclusive("create", "append", "delete-rrset", "delete-name", "delete-records")
	cmd.MarkFlagsOneRequired("create", "append", "delete-rrset", "delete-name", "delete-records")

	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "address to serve /healthz and /metrics on while running (e.g. :9191)")
	f.DurationVar(&opts.queryTimeout, "query-timeout", dnsupdate.DefaultQueryTimeout, "per-query timeout")
	f.DurationVar(&opts.retryBudget, "retry-budget", 0, "maximum time to retry a failed submission (0 means the default attempt cap)")
	f.DurationVar(&opts.interval, "interval", 5*time.Second, "steady-state poll interval per authority")
	f.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall deadline for propagation monitoring (0 means no deadline)")
	f.BoolVar(&opts.ipv6, "ipv6", false, "also resolve and monitor AAAA glue addresses")
	f.BoolVar(&opts.probeOnePerNS, "probe-one-per-ns", false, "probe only the first resolved address per nameserver, instead of every address")
	f.BoolVar(&opts.allowTCPUpgrade, "allow-tcp-upgrade", true, "retry a truncated monitoring probe over TCP")

	return cmd
}

func runUpdate(cmd *cobra.Command, opts *updateOptions, root *rootOptions, name, dataSpec string) error {
	cfgFile, err := loadConfigFile(root)
	if err != nil {
		return err
	}
	applyUpdateDefaults(cmd, opts, cfgFile)
	applyLoggingDefaults(cmd, root, cfgFile)

	logger := setupLogger(root.logFormat, root.logLevel, root.verbose)

	op, expectKind, err := buildOperation(opts, name, dataSpec)
	if err != nil {
		return err
	}

	key, err := resolveKey(opts)
	if err != nil {
		return err
	}

	var status *statusserver.Server
	if opts.metricsAddr != "" {
		status = statusserver.New(opts.metricsAddr, logger)
		status.Start()
		status.SetStatus("running")
		defer status.Shutdown(5 * time.Second)
	}

	req := orchestrator.Request{
		Operation:    op,
		Key:          key,
		ResolverAddr: opts.resolver,
		MasterAddr:   opts.server,
		ForceTCP:     opts.tcp,
		SkipUpdate:   opts.noOp,
		SkipWait:     opts.noWait,
		DiscoveryOpts: discovery.Options{
			Zone:      opts.zone,
			Server:    opts.server,
			IncludeV6: opts.ipv6,
			Exclude:   opts.exclude,
		},
		Expectation:       buildExpectation(op, expectKind),
		QueryTimeout:      opts.queryTimeout,
		Interval:          opts.interval,
		Deadline:          opts.timeout,
		SubmitRetryBudget: opts.retryBudget,
		ProbeOnePerNS:     opts.probeOnePerNS,
		AllowTCPUpgrade:   opts.allowTCPUpgrade,
		Logger:            logger,
	}

	result, err := orchestrator.Run(cmd.Context(), req)
	if err != nil {
		if status != nil {
			status.SetStatus("failed: " + err.Error())
		}
		return err
	}

	if status != nil {
		status.SetStatus("done")
	}
	if result.Report != nil {
		fmt.Print(result.Report.Summary())
	}
	return nil
}

func applyUpdateDefaults(cmd *cobra.Command, opts *updateOptions, cfg *cliconfig.File) {
	if opts.zone == "" {
		opts.zone = cfg.Zone
	}
	if opts.server == "" {
		opts.server = cfg.Server
	}
	if opts.resolver == "" {
		opts.resolver = cfg.Resolver
	}
	if opts.keyFile == "" {
		opts.keyFile = cfg.KeyFile
	}
	if len(opts.exclude) == 0 {
		opts.exclude = cfg.Exclude
	}
	if opts.metricsAddr == "" {
		opts.metricsAddr = cfg.MetricsAddr
	}
	if !cmd.Flags().Changed("ttl") {
		opts.ttl = cfg.TTLOrDefault(opts.ttl)
	}
	if !cmd.Flags().Changed("timeout") {
		opts.timeout = cfg.TimeoutDuration(opts.timeout)
	}
	if !cmd.Flags().Changed("interval") {
		opts.interval = cfg.IntervalDuration(opts.interval)
	}
}

// resolveKey turns --key and --key-file into a TSIGKey. --key alone must be
// a full "name:algorithm:secret" spec; a bare name instead selects that key
// out of the file given by --key-file. --key-file alone selects its first key.
func resolveKey(opts *updateOptions) (*dnsupdate.TSIGKey, error) {
	if opts.key != "" {
		switch strings.Count(opts.key, ":") {
		case 2:
			return parseKeySpec(opts.key)
		case 0:
			if opts.keyFile == "" {
				return nil, argumentError(fmt.Sprintf("--key-file is required when --key=%s names a key rather than giving name:algorithm:secret", opts.key))
			}
			return loadKeyFile(opts.keyFile, opts.key)
		default:
			return nil, argumentError(fmt.Sprintf("--key %q must be NAME or NAME:ALGORITHM:SECRET", opts.key))
		}
	}
	if opts.keyFile != "" {
		return loadKeyFile(opts.keyFile, "")
	}
	return nil, nil
}

// buildOperation translates the selected operation flag and the data-spec
// positional argument into a dnsupdate.Operation, returning the monitor
// ExpectationKind that operation implies.
func buildOperation(opts *updateOptions, name, dataSpec string) (dnsupdate.Operation, monitor.ExpectationKind, error) {
	rtype, items, err := parseDataSpec(dataSpec)
	if err != nil {
		return dnsupdate.Operation{}, 0, err
	}

	op := dnsupdate.Operation{Name: name, Type: rtype, TTL: opts.ttl, Data: items}

	switch {
	case opts.create:
		if len(items) == 0 {
			return dnsupdate.Operation{}, 0, argumentError("--create requires at least one record data item")
		}
		op.Kind = dnsupdate.Create
		return op, monitor.Is, nil

	case opts.append:
		if len(items) == 0 {
			return dnsupdate.Operation{}, 0, argumentError("--append requires at least one record data item")
		}
		op.Kind = dnsupdate.Append
		return op, monitor.Contains, nil

	case opts.deleteRRset:
		op.Kind = dnsupdate.DeleteRRset
		return op, monitor.Absent, nil

	case opts.deleteName:
		op.Kind = dnsupdate.DeleteName
		return op, monitor.Absent, nil

	case opts.deleteRecords:
		if len(items) == 0 {
			return dnsupdate.Operation{}, 0, argumentError("--delete-records requires at least one record data item")
		}
		op.Kind = dnsupdate.DeleteRecords
		return op, monitor.Not, nil

	default:
		return dnsupdate.Operation{}, 0, argumentError("one of --create, --append, --delete-rrset, --delete-name, --delete-records is required")
	}
}

func buildExpectation(op dnsupdate.Operation, kind monitor.ExpectationKind) monitor.Expectation {
	expect := monitor.Expectation{Kind: kind, Name: op.Name, Type: op.Type}
	if kind == monitor.Is || kind == monitor.Contains || kind == monitor.Not {
		expect.Want = dnsupdate.NewRRSet(op.Name, op.Type, op.TTL, op.Data...)
	}
	return expect
}
