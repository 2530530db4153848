package monitor

import (
	"testing"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/tdns-update/pkg/dnsupdate"
)

func TestExpectationIsSatisfied(t *testing.T) {
	e := Expectation{Kind: Is, Name: "foo.", Type: dns.TypeA, Want: dnsupdate.NewRRSet("foo.", dns.TypeA, 300, "192.0.2.1")}
	observed := dnsupdate.NewRRSet("foo.", dns.TypeA, 60, "192.0.2.1")
	if !e.Satisfied(observed, true) {
		t.Fatal("expected Is expectation to be satisfied")
	}
}

func TestExpectationContainsSatisfied(t *testing.T) {
	e := Expectation{Kind: Contains, Name: "foo.", Type: dns.TypeA, Want: dnsupdate.NewRRSet("foo.", dns.TypeA, 300, "192.0.2.1")}
	observed := dnsupdate.NewRRSet("foo.", dns.TypeA, 60, "192.0.2.1", "192.0.2.2")
	if !e.Satisfied(observed, true) {
		t.Fatal("expected Contains expectation to be satisfied by a superset")
	}
}

func TestExpectationAbsentRequiresNoRecords(t *testing.T) {
	e := Expectation{Kind: Absent, Name: "foo.", Type: dns.TypeA}
	if e.Satisfied(dnsupdate.RRSet{}, true) {
		t.Fatal("Absent should not be satisfied when present is true")
	}
	if !e.Satisfied(dnsupdate.RRSet{}, false) {
		t.Fatal("Absent should be satisfied when present is false")
	}
}

func TestExpectationNotSatisfiedByDifferentSet(t *testing.T) {
	prior := dnsupdate.NewRRSet("foo.", dns.TypeA, 300, "192.0.2.1")
	e := Expectation{Kind: Not, Name: "foo.", Type: dns.TypeA, Want: prior}
	if e.Satisfied(prior, true) {
		t.Fatal("Not should not be satisfied by the exact prior set")
	}
	other := dnsupdate.NewRRSet("foo.", dns.TypeA, 300, "192.0.2.9")
	if !e.Satisfied(other, true) {
		t.Fatal("Not should be satisfied by a different set")
	}
	if !e.Satisfied(dnsupdate.RRSet{}, false) {
		t.Fatal("Not should be satisfied by absence")
	}
}

func TestExpectationNotRejectsPartialOverlap(t *testing.T) {
	prior := dnsupdate.NewRRSet("foo.", dns.TypeA, 300, "192.0.2.1", "192.0.2.2")
	e := Expectation{Kind: Not, Name: "foo.", Type: dns.TypeA, Want: prior}

	partial := dnsupdate.NewRRSet("foo.", dns.TypeA, 300, "192.0.2.2")
	if e.Satisfied(partial, true) {
		t.Fatal("Not should not be satisfied while any deleted item remains, even in a smaller observed set")
	}
}
