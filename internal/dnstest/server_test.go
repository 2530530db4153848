package dnstest

import (
	"testing"

	"github.com/miekg/dns"
)

func TestServerAnswersSeededRecord(t *testing.T) {
	zone := NewZone()
	rr, _ := dns.NewRR("foo.example.org. 300 IN A 192.0.2.1")
	zone.Seed(rr)

	srv, err := Start(zone)
	if err != nil {
		t.Fatalf("starting server: %v", err)
	}
	defer srv.Close()

	c := new(dns.Client)
	msg := new(dns.Msg)
	msg.SetQuestion("foo.example.org.", dns.TypeA)

	resp, _, err := c.Exchange(msg, srv.UDPAddr)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if resp.Rcode != dns.RcodeSuccess || len(resp.Answer) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestServerNXDOMAINForUnknownName(t *testing.T) {
	zone := NewZone()
	srv, err := Start(zone)
	if err != nil {
		t.Fatalf("starting server: %v", err)
	}
	defer srv.Close()

	c := new(dns.Client)
	msg := new(dns.Msg)
	msg.SetQuestion("nope.example.org.", dns.TypeA)

	resp, _, err := c.Exchange(msg, srv.UDPAddr)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if resp.Rcode != dns.RcodeNameError {
		t.Fatalf("expected NXDOMAIN, got %s", dns.RcodeToString[resp.Rcode])
	}
}

func TestServerRejectsUpdateWithWrongTsigSecret(t *testing.T) {
	zone := NewZone().WithTSIG("key1.example.org.", "c2VjcmV0MTIzNDU2")
	srv, err := Start(zone)
	if err != nil {
		t.Fatalf("starting server: %v", err)
	}
	defer srv.Close()

	msg := new(dns.Msg)
	msg.SetUpdate("example.org.")
	rr, _ := dns.NewRR("foo.example.org. 300 IN A 192.0.2.1")
	msg.Insert([]dns.RR{rr})
	msg.SetTsig("key1.example.org.", dns.HmacSHA256, 300, 0)

	// Sign with a secret that does not match what the zone registered. The
	// client's own TSIG verification of the (correctly signed) rejection may
	// itself fail for the same reason, so only the parsed rcode is asserted.
	c := &dns.Client{TsigSecret: map[string]string{"key1.example.org.": "d3JvbmdzZWNyZXQ="}}
	resp, _, _ := c.Exchange(msg, srv.UDPAddr)
	if resp == nil {
		t.Fatal("expected a response even though its TSIG could not be verified")
	}
	if resp.Rcode != dns.RcodeNotAuth {
		t.Fatalf("expected NOTAUTH for a bad TSIG secret, got %s", dns.RcodeToString[resp.Rcode])
	}
}

func TestServerAppliesUpdate(t *testing.T) {
	zone := NewZone()
	srv, err := Start(zone)
	if err != nil {
		t.Fatalf("starting server: %v", err)
	}
	defer srv.Close()

	msg := new(dns.Msg)
	msg.SetUpdate("example.org.")
	rr, _ := dns.NewRR("foo.example.org. 300 IN A 192.0.2.1")
	msg.Insert([]dns.RR{rr})

	c := new(dns.Client)
	resp, _, err := c.Exchange(msg, srv.UDPAddr)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		t.Fatalf("expected success, got %s", dns.RcodeToString[resp.Rcode])
	}

	query := new(dns.Msg)
	query.SetQuestion("foo.example.org.", dns.TypeA)
	resp2, _, err := c.Exchange(query, srv.UDPAddr)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if len(resp2.Answer) != 1 {
		t.Fatalf("expected the inserted record to be queryable, got %d answers", len(resp2.Answer))
	}
}
