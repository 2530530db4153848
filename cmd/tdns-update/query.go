package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/tdns-update/pkg/dnsupdate"
	"gitlab.bluewillows.net/root/tdns-update/pkg/resolver"
	"gitlab.bluewillows.net/root/tdns-update/pkg/transport"
)

type queryOptions struct {
	types    []string
	resolver string
	tcp      bool
	timeout  time.Duration
}

func newQueryCommand(root *rootOptions) *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <name>",
		Short: "Issue a single recursive query and print the answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, &opts, root, args[0])
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&opts.types, "type", "t", []string{"A"}, "record type to query (repeatable)")
	f.StringVar(&opts.resolver, "resolver", "", "recursive resolver to query (default: /etc/resolv.conf)")
	f.BoolVar(&opts.tcp, "tcp", false, "force TCP for the query")
	f.DurationVar(&opts.timeout, "timeout", dnsupdate.DefaultQueryTimeout, "query timeout")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *queryOptions, root *rootOptions, name string) error {
	logger := setupLogger(root.logFormat, root.logLevel, root.verbose)
	logger.Debug("querying", "name", name, "types", opts.types)

	rslvAddr := opts.resolver
	if rslvAddr == "" {
		addr, err := resolver.SystemConfig()
		if err != nil {
			return fmt.Errorf("determining recursive resolver: %w", err)
		}
		rslvAddr = addr
	}

	network := transport.UDP
	if opts.tcp {
		network = transport.TCP
	}
	rslv := resolver.New(rslvAddr, transport.New(network, opts.timeout), opts.timeout)

	for _, typeName := range opts.types {
		rtype, err := dnsupdate.StringToType(typeName)
		if err != nil {
			return argumentError(err.Error())
		}

		rrs, err := rslv.Query(cmd.Context(), name, rtype)
		if err != nil {
			return fmt.Errorf("querying %s %s: %w", name, typeName, err)
		}
		if len(rrs) == 0 {
			fmt.Printf("%s %s: no records\n", name, typeName)
			continue
		}
		for _, rr := range rrs {
			rec := dnsupdate.RecordFromRR(rr)
			fmt.Printf("%s %s %s\n", rec.Name, rec.TypeString(), rec.RData)
		}
	}
	return nil
}
