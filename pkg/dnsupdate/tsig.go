package dnsupdate

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// DefaultTSIGAlgorithm is used when a key file or flag names no algorithm.
const DefaultTSIGAlgorithm = dns.HmacSHA256

// TSIGKey is a Transaction Signature key for RFC 2845 authentication.
type TSIGKey struct {
	Name      string // key name, always FQDN
	Secret    string // base64-encoded shared secret
	Algorithm string // one of the dns.HmacSHA* constants
}

// NewTSIGKey validates and constructs a TSIGKey. The secret must be valid
// base64; the algorithm is restricted to the SHA-2 family — MD5 and SHA1
// based algorithms are rejected even though github.com/miekg/dns itself
// implements them, narrowing what this client will sign with.
func NewTSIGKey(name, secret, algorithm string) (*TSIGKey, error) {
	name = dns.Fqdn(name)

	if _, err := base64.StdEncoding.DecodeString(secret); err != nil {
		return nil, fmt.Errorf("tsig secret is not valid base64: %w", err)
	}

	alg := normalizeAlgorithm(algorithm)
	if !isAllowedAlgorithm(alg) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}

	return &TSIGKey{Name: name, Secret: secret, Algorithm: alg}, nil
}

// ApplyToClient installs the key's secret onto a transport-level TSIG map,
// the form *dns.Client/*dns.Transfer expect.
func (k *TSIGKey) ApplyToClient(secrets map[string]string) map[string]string {
	if k == nil {
		return secrets
	}
	if secrets == nil {
		secrets = make(map[string]string, 1)
	}
	secrets[k.Name] = k.Secret
	return secrets
}

// ApplyToMessage attaches an unsigned TSIG RR referencing this key; signing
// happens inside dns.Client.Exchange once TsigSecret is set.
func (k *TSIGKey) ApplyToMessage(msg *dns.Msg) {
	if k == nil {
		return
	}
	msg.SetTsig(k.Name, k.Algorithm, 300, 0)
}

func normalizeAlgorithm(alg string) string {
	if alg == "" {
		return DefaultTSIGAlgorithm
	}
	switch strings.ToLower(strings.TrimSpace(alg)) {
	case "hmac-sha224", "sha224":
		return dns.HmacSHA224
	case "hmac-sha256", "sha256":
		return dns.HmacSHA256
	case "hmac-sha384", "sha384":
		return dns.HmacSHA384
	case "hmac-sha512", "sha512":
		return dns.HmacSHA512
	default:
		return strings.ToLower(strings.TrimSpace(alg))
	}
}

func isAllowedAlgorithm(alg string) bool {
	switch alg {
	case dns.HmacSHA224, dns.HmacSHA256, dns.HmacSHA384, dns.HmacSHA512:
		return true
	default:
		return false
	}
}

// AlgorithmName returns a human-readable name for an algorithm constant.
func AlgorithmName(alg string) string {
	switch alg {
	case dns.HmacSHA224:
		return "HMAC-SHA224"
	case dns.HmacSHA256:
		return "HMAC-SHA256"
	case dns.HmacSHA384:
		return "HMAC-SHA384"
	case dns.HmacSHA512:
		return "HMAC-SHA512"
	default:
		return alg
	}
}

// SupportedAlgorithms lists the TSIG algorithm names this client accepts.
func SupportedAlgorithms() []string {
	return []string{"hmac-sha224", "hmac-sha256", "hmac-sha384", "hmac-sha512"}
}
