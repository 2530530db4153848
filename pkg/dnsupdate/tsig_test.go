package dnsupdate

import (
	"encoding/base64"
	"testing"

	"github.com/miekg/dns"
)

func validSecret() string {
	return base64.StdEncoding.EncodeToString([]byte("supersecretkeybytes"))
}

func TestNewTSIGKeyAcceptsSHA2Family(t *testing.T) {
	for _, alg := range []string{"hmac-sha224", "hmac-sha256", "hmac-sha384", "hmac-sha512"} {
		if _, err := NewTSIGKey("key.", validSecret(), alg); err != nil {
			t.Errorf("algorithm %s should be accepted: %v", alg, err)
		}
	}
}

func TestNewTSIGKeyRejectsMD5AndSHA1(t *testing.T) {
	for _, alg := range []string{"hmac-md5", dns.HmacMD5, "hmac-sha1"} {
		if _, err := NewTSIGKey("key.", validSecret(), alg); err == nil {
			t.Errorf("algorithm %s should have been rejected", alg)
		}
	}
}

func TestNewTSIGKeyRejectsInvalidBase64(t *testing.T) {
	if _, err := NewTSIGKey("key.", "not base64!!", "hmac-sha256"); err == nil {
		t.Fatal("expected error for invalid base64 secret")
	}
}

func TestNewTSIGKeyNormalizesName(t *testing.T) {
	k, err := NewTSIGKey("key", validSecret(), "hmac-sha256")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k.Name != "key." {
		t.Fatalf("expected FQDN name, got %q", k.Name)
	}
}
