package monitor

import (
	"gitlab.bluewillows.net/root/tdns-update/pkg/discovery"
	"gitlab.bluewillows.net/root/tdns-update/pkg/dnsupdate"
)

// State is a per-endpoint point in the convergence state machine.
type State int

const (
	Pending State = iota
	Retrying
	Mismatched
	Satisfied
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Retrying:
		return "retrying"
	case Mismatched:
		return "mismatched"
	case Satisfied:
		return "satisfied"
	default:
		return "unknown"
	}
}

// EndpointStatus is the last known outcome for a single authority endpoint.
type EndpointStatus struct {
	Endpoint discovery.Endpoint
	State    State
	Observed dnsupdate.RRSet // zero value when nothing has been observed yet
	LastErr  error
	Attempts int
}
