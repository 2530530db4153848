package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/tdns-update/internal/dnstest"
	"gitlab.bluewillows.net/root/tdns-update/pkg/discovery"
	"gitlab.bluewillows.net/root/tdns-update/pkg/dnsupdate"
)

// TestMonitorAgainstRealMockServer exercises the monitor over actual UDP
// wire exchanges against internal/dnstest, rather than a stubbed transport.
func TestMonitorAgainstRealMockServer(t *testing.T) {
	zone := dnstest.NewZone()
	rr, _ := dns.NewRR("foo.example.org. 300 IN A 192.0.2.1")
	zone.Seed(rr)

	srv, err := dnstest.Start(zone)
	if err != nil {
		t.Fatalf("starting mock server: %v", err)
	}
	defer srv.Close()

	expect := Expectation{
		Kind: Is,
		Name: "foo.example.org.",
		Type: dns.TypeA,
		Want: dnsupdate.NewRRSet("foo.example.org.", dns.TypeA, 300, "192.0.2.1"),
	}
	endpoints := []discovery.Endpoint{{NSName: "ns1.example.org.", Addr: srv.UDPAddr}}

	m := New(Config{Expectation: expect, Endpoints: endpoints, Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	report, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Converged() {
		t.Fatalf("expected convergence against mock server: %s", report.Summary())
	}
}
