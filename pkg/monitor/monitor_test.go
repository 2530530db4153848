package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/tdns-update/pkg/discovery"
	"gitlab.bluewillows.net/root/tdns-update/pkg/dnsupdate"
)

// scriptedTransport returns a canned answer per address, advancing to the
// next scripted response on every call past the first, so tests can model
// "converges after N polls".
type scriptedTransport struct {
	mu      sync.Mutex
	scripts map[string][]*dns.Msg
}

func (s *scriptedTransport) Exchange(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	script := s.scripts[addr]
	if len(script) == 0 {
		return newAnswer(dns.RcodeSuccess, nil), 0, nil
	}
	next := script[0]
	if len(script) > 1 {
		s.scripts[addr] = script[1:]
	}
	resp := next.Copy()
	resp.Id = msg.Id
	return resp, 0, nil
}

func newAnswer(rcode int, rrs []dns.RR) *dns.Msg {
	m := new(dns.Msg)
	m.Rcode = rcode
	m.Answer = rrs
	return m
}

func aRecord(name, ip string) dns.RR {
	rr, _ := dns.NewRR(name + " 300 IN A " + ip)
	return rr
}

func TestMonitorConvergesWhenAllEndpointsMatch(t *testing.T) {
	expect := Expectation{
		Kind: Is,
		Name: "foo.example.org.",
		Type: dns.TypeA,
		Want: dnsupdate.NewRRSet("foo.example.org.", dns.TypeA, 300, "192.0.2.1"),
	}
	endpoints := []discovery.Endpoint{
		{NSName: "a.example.org.", Addr: "198.51.100.1:53"},
		{NSName: "b.example.org.", Addr: "198.51.100.2:53"},
	}
	tr := &scriptedTransport{scripts: map[string][]*dns.Msg{
		"198.51.100.1:53": {newAnswer(dns.RcodeSuccess, []dns.RR{aRecord("foo.example.org.", "192.0.2.1")})},
		"198.51.100.2:53": {newAnswer(dns.RcodeSuccess, []dns.RR{aRecord("foo.example.org.", "192.0.2.1")})},
	}}

	m := New(Config{Expectation: expect, Endpoints: endpoints, Interval: time.Millisecond}).WithTransport(tr)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	report, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Converged() {
		t.Fatalf("expected convergence, got: %s", report.Summary())
	}
}

func TestMonitorReportsUnsatisfiedOnDeadline(t *testing.T) {
	expect := Expectation{
		Kind: Is,
		Name: "foo.example.org.",
		Type: dns.TypeA,
		Want: dnsupdate.NewRRSet("foo.example.org.", dns.TypeA, 300, "192.0.2.1"),
	}
	endpoints := []discovery.Endpoint{
		{NSName: "a.example.org.", Addr: "198.51.100.1:53"},
	}
	tr := &scriptedTransport{scripts: map[string][]*dns.Msg{
		"198.51.100.1:53": {newAnswer(dns.RcodeSuccess, []dns.RR{aRecord("foo.example.org.", "192.0.2.9")})},
	}}

	m := New(Config{Expectation: expect, Endpoints: endpoints, Interval: time.Millisecond}).WithTransport(tr)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	report, err := m.Run(ctx)
	if err == nil {
		t.Fatal("expected context deadline error")
	}
	if report.Converged() {
		t.Fatal("did not expect convergence")
	}
	if len(report.Unsatisfied()) != 1 {
		t.Fatalf("expected 1 unsatisfied endpoint, got %d", len(report.Unsatisfied()))
	}
}

func TestMonitorRefusedIsRetryingNotSatisfied(t *testing.T) {
	expect := Expectation{Kind: Absent, Name: "foo.example.org.", Type: dns.TypeA}
	endpoints := []discovery.Endpoint{{NSName: "a.example.org.", Addr: "198.51.100.1:53"}}
	tr := &scriptedTransport{scripts: map[string][]*dns.Msg{
		"198.51.100.1:53": {
			newAnswer(dns.RcodeRefused, nil),
			newAnswer(dns.RcodeRefused, nil),
		},
	}}

	m := New(Config{Expectation: expect, Endpoints: endpoints, Interval: time.Millisecond}).WithTransport(tr)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	report, err := m.Run(ctx)
	if err == nil {
		t.Fatal("expected context deadline error")
	}
	if report.Converged() {
		t.Fatal("a REFUSED authority must never be reported as converged")
	}
	unsatisfied := report.Unsatisfied()
	if len(unsatisfied) != 1 {
		t.Fatalf("expected 1 unsatisfied endpoint, got %d", len(unsatisfied))
	}
	if unsatisfied[0].State != Retrying {
		t.Fatalf("expected state Retrying for a REFUSED authority, got %s", unsatisfied[0].State)
	}
}

func TestMonitorAbsentExpectationOnNXDOMAIN(t *testing.T) {
	expect := Expectation{Kind: Absent, Name: "foo.example.org.", Type: dns.TypeA}
	endpoints := []discovery.Endpoint{{NSName: "a.example.org.", Addr: "198.51.100.1:53"}}
	tr := &scriptedTransport{scripts: map[string][]*dns.Msg{
		"198.51.100.1:53": {newAnswer(dns.RcodeNameError, nil)},
	}}

	m := New(Config{Expectation: expect, Endpoints: endpoints, Interval: time.Millisecond}).WithTransport(tr)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	report, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Converged() {
		t.Fatalf("expected convergence on NXDOMAIN for Absent expectation: %s", report.Summary())
	}
}
