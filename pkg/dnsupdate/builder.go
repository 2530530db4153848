package dnsupdate

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// OperationKind names one of the five update shapes this client supports.
type OperationKind int

const (
	Create OperationKind = iota
	Append
	DeleteRRset
	DeleteName
	DeleteRecords
)

func (k OperationKind) String() string {
	switch k {
	case Create:
		return "create"
	case Append:
		return "append"
	case DeleteRRset:
		return "delete-rrset"
	case DeleteName:
		return "delete-name"
	case DeleteRecords:
		return "delete-records"
	default:
		return "unknown"
	}
}

// Operation is a declarative description of one RFC 2136 update to build.
type Operation struct {
	Kind OperationKind
	Zone string
	Name string
	Type uint16 // ignored for DeleteName
	TTL  uint32 // ignored for delete operations
	Data []string
}

// Build assembles the dns.Msg for op, following RFC 2136's prerequisite and
// update section rules for each operation kind.
func Build(op Operation) (*dns.Msg, error) {
	if !strings.HasSuffix(dns.Fqdn(op.Name), dns.Fqdn(op.Zone)) {
		return nil, fmt.Errorf("%w: %s not in zone %s", ErrZoneMismatch, op.Name, op.Zone)
	}

	msg := new(dns.Msg)
	msg.SetUpdate(dns.Fqdn(op.Zone))

	switch op.Kind {
	case Create:
		// Prerequisite: no RRset of this type exists at this name yet.
		prereq, err := emptyRR(op.Name, op.Type)
		if err != nil {
			return nil, err
		}
		msg.RRsetNotUsed([]dns.RR{prereq})

		rrs, err := dataToRRs(op, op.TTL)
		if err != nil {
			return nil, err
		}
		msg.Insert(rrs)

	case Append:
		rrs, err := dataToRRs(op, op.TTL)
		if err != nil {
			return nil, err
		}
		msg.Insert(rrs)

	case DeleteRRset:
		rr, err := emptyRR(op.Name, op.Type)
		if err != nil {
			return nil, err
		}
		msg.RemoveRRset([]dns.RR{rr})

	case DeleteName:
		rr, err := emptyRR(op.Name, op.Type)
		if err != nil {
			return nil, err
		}
		msg.RemoveName([]dns.RR{rr})

	case DeleteRecords:
		rrs, err := dataToRRs(op, 0)
		if err != nil {
			return nil, err
		}
		msg.Remove(rrs)

	default:
		return nil, fmt.Errorf("unknown operation kind: %v", op.Kind)
	}

	return msg, nil
}

// emptyRR builds a placeholder RR of the given type with no rdata, for use
// with the dns.Msg helpers (RRsetNotUsed/RemoveRRset/RemoveName) that only care
// about the RR's name and type and overwrite class/ttl/rdata themselves.
func emptyRR(name string, rtype uint16) (dns.RR, error) {
	rr := dns.TypeToRR[rtype]
	if rr == nil {
		return &dns.ANY{Hdr: dns.RR_Header{Name: dns.Fqdn(name), Rrtype: rtype}}, nil
	}
	r := rr()
	*r.Header() = dns.RR_Header{Name: dns.Fqdn(name), Rrtype: rtype}
	return r, nil
}

func dataToRRs(op Operation, ttl uint32) ([]dns.RR, error) {
	rrs := make([]dns.RR, 0, len(op.Data))
	for _, item := range op.Data {
		rec := Record{Name: op.Name, Type: op.Type, RData: item}
		rr, err := rec.ToRR(ttl)
		if err != nil {
			return nil, fmt.Errorf("building rr for %s %s: %w", op.Name, rec.TypeString(), err)
		}
		rrs = append(rrs, rr)
	}
	return rrs, nil
}
