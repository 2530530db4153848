package monitor

import "gitlab.bluewillows.net/root/tdns-update/pkg/dnsupdate"

// ExpectationKind names one of the four convergence predicates an endpoint's
// observed RRset is judged against.
type ExpectationKind int

const (
	// Is requires the observed RRset to equal a given set exactly.
	Is ExpectationKind = iota
	// Contains requires the observed RRset to be a superset of a given set;
	// the natural post-condition for an Append operation.
	Contains
	// Absent requires no records to exist at (name, type).
	Absent
	// Not requires none of a given prior set's items to still be observed,
	// or absence entirely — used after a delete when the replacement value
	// is unknown and partial propagation must not read as converged.
	Not
)

// Expectation is the declarative target the monitor polls every authority
// endpoint against.
type Expectation struct {
	Kind ExpectationKind
	Name string
	Type uint16
	Want dnsupdate.RRSet // used by Is, Contains, Not; ignored by Absent
}

// Satisfied reports whether observed (the RRset found at (e.Name, e.Type),
// possibly empty) satisfies the expectation. present indicates whether the
// name/type combination had any records at all (false means NXDOMAIN/NODATA).
func (e Expectation) Satisfied(observed dnsupdate.RRSet, present bool) bool {
	switch e.Kind {
	case Is:
		return present && observed.Equal(e.Want)
	case Contains:
		return present && observed.Contains(e.Want)
	case Absent:
		return !present
	case Not:
		if !present {
			return true
		}
		return !observed.Overlaps(e.Want)
	default:
		return false
	}
}
