package monitor

import (
	"fmt"
	"strings"
)

// Report summarizes the outcome of one monitoring run.
type Report struct {
	Expectation Expectation
	Endpoints   []EndpointStatus
}

// Converged reports whether every endpoint reached Satisfied.
func (r *Report) Converged() bool {
	for _, e := range r.Endpoints {
		if e.State != Satisfied {
			return false
		}
	}
	return true
}

// Unsatisfied returns the endpoints that did not reach Satisfied.
func (r *Report) Unsatisfied() []EndpointStatus {
	var out []EndpointStatus
	for _, e := range r.Endpoints {
		if e.State != Satisfied {
			out = append(out, e)
		}
	}
	return out
}

// Summary renders a human-readable account of the run, naming every
// dissenting endpoint and its last observed state.
func (r *Report) Summary() string {
	var sb strings.Builder

	if r.Converged() {
		fmt.Fprintf(&sb, "converged: all %d endpoint(s) satisfied\n", len(r.Endpoints))
		return sb.String()
	}

	unsatisfied := r.Unsatisfied()
	fmt.Fprintf(&sb, "not converged: %d/%d endpoint(s) satisfied\n", len(r.Endpoints)-len(unsatisfied), len(r.Endpoints))
	for _, e := range unsatisfied {
		if e.LastErr != nil {
			fmt.Fprintf(&sb, "  - %s (%s): %s: %v\n", e.Endpoint.NSName, e.Endpoint.Addr, e.State, e.LastErr)
		} else {
			fmt.Fprintf(&sb, "  - %s (%s): %s observed=%v\n", e.Endpoint.NSName, e.Endpoint.Addr, e.State, e.Observed.Items)
		}
	}
	return sb.String()
}
