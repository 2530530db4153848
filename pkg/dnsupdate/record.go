// Package dnsupdate builds, signs, and submits RFC 2136 DNS UPDATE messages,
// and models the RRsets those updates target.
package dnsupdate

import (
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/miekg/dns"
)

// Record is a single piece of record data at a given (name, type), without
// class or TTL — those are supplied by the operation that uses it.
type Record struct {
	Name  string
	Type  uint16
	RData string
}

// TypeString returns the string form of the record's type.
func (r Record) TypeString() string {
	if name, ok := dns.TypeToString[r.Type]; ok {
		return name
	}
	return fmt.Sprintf("TYPE%d", r.Type)
}

// ToRR converts the record to a dns.RR with the given TTL.
func (r Record) ToRR(ttl uint32) (dns.RR, error) {
	header := dns.RR_Header{
		Name:   dns.Fqdn(r.Name),
		Rrtype: r.Type,
		Class:  dns.ClassINET,
		Ttl:    ttl,
	}

	switch r.Type {
	case dns.TypeA:
		ip := net.ParseIP(r.RData)
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("invalid IPv4 address: %s", r.RData)
		}
		return &dns.A{Hdr: header, A: ip.To4()}, nil

	case dns.TypeAAAA:
		ip := net.ParseIP(r.RData)
		if ip == nil || ip.To16() == nil || ip.To4() != nil {
			return nil, fmt.Errorf("invalid IPv6 address: %s", r.RData)
		}
		return &dns.AAAA{Hdr: header, AAAA: ip.To16()}, nil

	case dns.TypeTXT:
		return &dns.TXT{Hdr: header, Txt: []string{r.RData}}, nil

	case dns.TypeCNAME:
		return &dns.CNAME{Hdr: header, Target: dns.Fqdn(r.RData)}, nil

	case dns.TypeNS:
		return &dns.NS{Hdr: header, Ns: dns.Fqdn(r.RData)}, nil

	default:
		return nil, fmt.Errorf("unsupported record type: %s", r.TypeString())
	}
}

// RecordFromRR extracts a Record from a dns.RR, recognizing the types this
// repository treats as structured data and falling back to the record's
// wire-format RDATA string for anything else, so a probe can still report
// that *something* answered even for a type it can't classify precisely.
func RecordFromRR(rr dns.RR) Record {
	header := rr.Header()
	rec := Record{Name: header.Name, Type: header.Rrtype}

	switch v := rr.(type) {
	case *dns.A:
		rec.RData = v.A.String()
	case *dns.AAAA:
		rec.RData = v.AAAA.String()
	case *dns.TXT:
		rec.RData = strings.Join(v.Txt, "")
	case *dns.CNAME:
		rec.RData = v.Target
	case *dns.NS:
		rec.RData = v.Ns
	default:
		fields := strings.SplitN(rr.String(), "\t", 5)
		if len(fields) == 5 {
			rec.RData = fields[4]
		} else {
			rec.RData = rr.String()
		}
	}
	return rec
}

// StringToType converts a record type name ("A", "AAAA", "TXT", ...) to its
// wire code.
func StringToType(s string) (uint16, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if t, ok := dns.StringToType[s]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown record type: %s", s)
}

// UserFacingTypes are the record types the update CLI's data specifier
// grammar accepts; SOA, NS, CNAME, and ANY still participate internally
// (discovery, prerequisites, delete-by-type) but are not user-specifiable
// record data.
func UserFacingTypes() []uint16 {
	return []uint16{dns.TypeA, dns.TypeAAAA, dns.TypeTXT}
}

// IsUserFacingType reports whether t may appear in an update's RRset data
// specifier.
func IsUserFacingType(t uint16) bool {
	for _, u := range UserFacingTypes() {
		if u == t {
			return true
		}
	}
	return false
}

// RRSet is a de-duplicating, order-independent, case-insensitive-on-name
// collection of Records sharing (name, type). TTL is tracked separately
// since it does not participate in the set-equality used for convergence.
type RRSet struct {
	Name  string
	Type  uint16
	TTL   uint32
	Items []string // RData values, always de-duplicated
}

// NewRRSet builds an RRSet, de-duplicating and sorting its items so two
// RRsets with the same logical content always produce equal structs.
func NewRRSet(name string, rtype uint16, ttl uint32, items ...string) RRSet {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		key := strings.ToLower(it)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	sort.Strings(out)
	return RRSet{Name: dns.Fqdn(name), Type: rtype, TTL: ttl, Items: out}
}

// RRSetFromRecords groups records sharing (name, type) into an RRSet,
// ignoring TTL (the caller supplies one if it needs to build new RRs).
func RRSetFromRecords(records []Record, ttl uint32) RRSet {
	if len(records) == 0 {
		return RRSet{}
	}
	items := make([]string, 0, len(records))
	for _, r := range records {
		items = append(items, r.RData)
	}
	return NewRRSet(records[0].Name, records[0].Type, ttl, items...)
}

// Equal reports set-equality with other, ignoring TTL and ordering and
// comparing names/items case-insensitively.
func (s RRSet) Equal(other RRSet) bool {
	if !strings.EqualFold(s.Name, other.Name) || s.Type != other.Type {
		return false
	}
	if len(s.Items) != len(other.Items) {
		return false
	}
	a := sortedLower(s.Items)
	b := sortedLower(other.Items)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Contains reports whether s is a superset of other's items.
func (s RRSet) Contains(other RRSet) bool {
	if !strings.EqualFold(s.Name, other.Name) || s.Type != other.Type {
		return false
	}
	have := make(map[string]struct{}, len(s.Items))
	for _, it := range s.Items {
		have[strings.ToLower(it)] = struct{}{}
	}
	for _, it := range other.Items {
		if _, ok := have[strings.ToLower(it)]; !ok {
			return false
		}
	}
	return true
}

// Overlaps reports whether s and other share any item, ignoring name/type.
func (s RRSet) Overlaps(other RRSet) bool {
	have := make(map[string]struct{}, len(s.Items))
	for _, it := range s.Items {
		have[strings.ToLower(it)] = struct{}{}
	}
	for _, it := range other.Items {
		if _, ok := have[strings.ToLower(it)]; ok {
			return true
		}
	}
	return false
}

// Empty reports whether the RRset has no items.
func (s RRSet) Empty() bool {
	return len(s.Items) == 0
}

func sortedLower(items []string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = strings.ToLower(it)
	}
	sort.Strings(out)
	return out
}
