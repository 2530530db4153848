package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/miekg/dns"
)

type stubTransport struct {
	resp *dns.Msg
	err  error
}

func (s *stubTransport) Exchange(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	resp := s.resp.Copy()
	resp.Id = msg.Id
	return resp, time.Millisecond, nil
}

func soaResponse() *dns.Msg {
	m := new(dns.Msg)
	m.Rcode = dns.RcodeSuccess
	soa, _ := dns.NewRR("example.org. 3600 IN SOA sns.dns.icann.org. noc.dns.icann.org. 1 7200 3600 1209600 3600")
	m.Answer = []dns.RR{soa}
	return m
}

func TestResolverSOA(t *testing.T) {
	r := New("192.0.2.1:53", &stubTransport{resp: soaResponse()}, time.Second)
	soa, err := r.SOA(context.Background(), "example.org.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if soa == nil || soa.Ns != "sns.dns.icann.org." {
		t.Fatalf("unexpected soa: %+v", soa)
	}
}

func TestResolverNXDOMAINIsEmptyNotError(t *testing.T) {
	m := new(dns.Msg)
	m.Rcode = dns.RcodeNameError
	r := New("192.0.2.1:53", &stubTransport{resp: m}, time.Second)
	rrs, err := r.Query(context.Background(), "nope.example.org.", dns.TypeA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rrs) != 0 {
		t.Fatalf("expected no records, got %d", len(rrs))
	}
}
