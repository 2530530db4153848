// Package dnstest implements a minimal in-process DNS server for exercising
// the update submitter and propagation monitor without a real nameserver,
// grounded on the fixture-driven mock authoritative server the original
// implementation's own test suite used.
package dnstest

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// Zone is an in-memory, mutable set of resource records keyed by
// lowercase(name)+type, simulating one authoritative (or primary master)
// view of a zone.
type Zone struct {
	mu      sync.Mutex
	records map[string][]dns.RR
	tsig    map[string]string // key name -> base64 secret, for verifying UPDATE signatures
}

// NewZone returns an empty Zone.
func NewZone() *Zone {
	return &Zone{records: make(map[string][]dns.RR)}
}

// WithTSIG registers a key the zone will require (and verify) on UPDATE requests.
func (z *Zone) WithTSIG(name, secret string) *Zone {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.tsig == nil {
		z.tsig = make(map[string]string)
	}
	z.tsig[dns.Fqdn(name)] = secret
	return z
}

// tsigSecrets returns a snapshot suitable for dns.Server.TsigSecret, so the
// library itself verifies the request MAC rather than this package.
func (z *Zone) tsigSecrets() map[string]string {
	z.mu.Lock()
	defer z.mu.Unlock()
	if len(z.tsig) == 0 {
		return nil
	}
	out := make(map[string]string, len(z.tsig))
	for k, v := range z.tsig {
		out[k] = v
	}
	return out
}

// Seed inserts rr into the zone unconditionally, for test fixture setup.
func (z *Zone) Seed(rr dns.RR) {
	z.mu.Lock()
	defer z.mu.Unlock()
	key := recordKey(rr.Header().Name, rr.Header().Rrtype)
	z.records[key] = append(z.records[key], rr)
}

func recordKey(name string, rtype uint16) string {
	return strings.ToLower(dns.Fqdn(name)) + "/" + dns.TypeToString[rtype]
}

// Server is a UDP+TCP listener serving a single Zone.
type Server struct {
	zone      *Zone
	udpConn   *dns.Server
	tcpConn   *dns.Server
	UDPAddr   string
	TCPAddr   string
	truncateN int // when >0, ANCOUNT above this triggers TC=1 over UDP, for truncation tests
}

// Start binds to 127.0.0.1 on random ports for both UDP and TCP and begins
// serving zone. Call Close to shut down.
func Start(zone *Zone) (*Server, error) {
	udpListener, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listening udp: %w", err)
	}
	tcpListener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listening tcp: %w", err)
	}

	s := &Server{
		zone:    zone,
		UDPAddr: udpListener.LocalAddr().String(),
		TCPAddr: tcpListener.Addr().String(),
	}

	mux := dns.NewServeMux()
	mux.HandleFunc(".", s.handle)

	secrets := zone.tsigSecrets()
	s.udpConn = &dns.Server{PacketConn: udpListener, Handler: mux, TsigSecret: secrets, MsgAcceptFunc: acceptQueryOrUpdate}
	s.tcpConn = &dns.Server{Listener: tcpListener, Handler: mux, TsigSecret: secrets, MsgAcceptFunc: acceptQueryOrUpdate}

	go s.udpConn.ActivateAndServe()
	go s.tcpConn.ActivateAndServe()

	return s, nil
}

// Close shuts down both listeners.
func (s *Server) Close() {
	s.udpConn.Shutdown()
	s.tcpConn.Shutdown()
}

// acceptQueryOrUpdate extends dns.DefaultMsgAcceptFunc to also accept
// OpcodeUpdate, which the default rejects with NOTIMP.
func acceptQueryOrUpdate(dh dns.Header) dns.MsgAcceptAction {
	if dh.Bits&(1<<15) != 0 { // QR bit set: this is a response
		return dns.MsgIgnore
	}
	opcode := int(dh.Bits>>11) & 0xF
	if opcode == dns.OpcodeUpdate {
		return dns.MsgAccept
	}
	return dns.DefaultMsgAcceptFunc(dh)
}

func (s *Server) handle(w dns.ResponseWriter, r *dns.Msg) {
	resp := new(dns.Msg)
	resp.SetReply(r)

	if r.Opcode == dns.OpcodeUpdate {
		s.handleUpdate(w, resp, r)
		w.WriteMsg(resp)
		return
	}

	if len(r.Question) != 1 {
		resp.Rcode = dns.RcodeFormatError
		w.WriteMsg(resp)
		return
	}

	q := r.Question[0]
	s.zone.mu.Lock()
	rrs, ok := s.zone.records[recordKey(q.Name, q.Qtype)]
	s.zone.mu.Unlock()

	if !ok {
		// Distinguish NXDOMAIN (nothing at this name at all) from NODATA.
		if s.hasAnyRecordAt(q.Name) {
			resp.Rcode = dns.RcodeSuccess
		} else {
			resp.Rcode = dns.RcodeNameError
		}
		w.WriteMsg(resp)
		return
	}

	if s.truncateN > 0 && len(rrs) > s.truncateN && w.LocalAddr().Network() == "udp" {
		resp.Truncated = true
		rrs = rrs[:s.truncateN]
	}
	resp.Answer = rrs
	w.WriteMsg(resp)
}

func (s *Server) hasAnyRecordAt(name string) bool {
	s.zone.mu.Lock()
	defer s.zone.mu.Unlock()
	prefix := strings.ToLower(dns.Fqdn(name)) + "/"
	for k := range s.zone.records {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// handleUpdate applies RFC 2136 prerequisite checks and update-section
// mutations to the zone, matching the subset of semantics this repository's
// builder emits.
func (s *Server) handleUpdate(w dns.ResponseWriter, resp *dns.Msg, r *dns.Msg) {
	if tsig := r.IsTsig(); tsig != nil {
		// Echo the TSIG RR on every reply, signed or not, so the client
		// can tell a TSIG-specific rejection from a plain one.
		resp.SetTsig(tsig.Hdr.Name, tsig.Algorithm, tsig.Fudge, time.Now().Unix())
	}

	if len(s.zone.tsig) > 0 {
		// The library already verified the MAC (or recorded why it
		// couldn't) before the handler runs; an unsigned request when
		// the zone requires a key is rejected the same way.
		if r.IsTsig() == nil || w.TsigStatus() != nil {
			resp.SetRcode(r, dns.RcodeNotAuth)
			return
		}
	}

	s.zone.mu.Lock()
	defer s.zone.mu.Unlock()

	for _, rr := range r.Answer {
		h := rr.Header()
		switch h.Class {
		case dns.ClassNONE:
			// "RRset does not exist" prerequisite.
			if len(s.zone.records[recordKey(h.Name, h.Rrtype)]) > 0 {
				resp.Rcode = dns.RcodeYXRrset
				return
			}
		case dns.ClassANY:
			if len(s.zone.records[recordKey(h.Name, h.Rrtype)]) == 0 {
				resp.Rcode = dns.RcodeNXRrset
				return
			}
		}
	}

	for _, rr := range r.Ns {
		h := rr.Header()
		key := recordKey(h.Name, h.Rrtype)
		switch h.Class {
		case dns.ClassINET:
			s.zone.records[key] = append(s.zone.records[key], rr)
		case dns.ClassANY:
			if h.Rrtype == dns.TypeANY {
				prefix := strings.ToLower(dns.Fqdn(h.Name)) + "/"
				for k := range s.zone.records {
					if strings.HasPrefix(k, prefix) {
						delete(s.zone.records, k)
					}
				}
			} else {
				delete(s.zone.records, key)
			}
		case dns.ClassNONE:
			s.zone.records[key] = removeMatching(s.zone.records[key], rr)
		}
	}

	resp.Rcode = dns.RcodeSuccess
}

func removeMatching(existing []dns.RR, target dns.RR) []dns.RR {
	out := existing[:0]
	for _, rr := range existing {
		if rdataEqual(rr, target) {
			continue
		}
		out = append(out, rr)
	}
	return out
}

func rdataEqual(a, b dns.RR) bool {
	af := strings.SplitN(a.String(), "\t", 5)
	bf := strings.SplitN(b.String(), "\t", 5)
	if len(af) != 5 || len(bf) != 5 {
		return a.String() == b.String()
	}
	return af[4] == bf[4]
}
