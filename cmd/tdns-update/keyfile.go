package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/tdns-update/pkg/dnsupdate"
)

// loadKeyFile reads a TSIG key from a file holding "name:algorithm:base64-secret"
// lines (blank lines and #-comments skipped). When keyName is empty, the first
// key line wins; otherwise the first line whose name matches keyName is used,
// and a missing match is an error.
func loadKeyFile(path, keyName string) (*dnsupdate.TSIGKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening key file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			return nil, argumentError(fmt.Sprintf("invalid line in key file %s: %q must be name:algorithm:secret", path, line))
		}
		if keyName != "" && dns.Fqdn(parts[0]) != dns.Fqdn(keyName) {
			continue
		}
		return parseKeyLine(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	if keyName != "" {
		return nil, fmt.Errorf("key %s not found in %s: %w", keyName, path, errArgument)
	}
	return nil, fmt.Errorf("key file %s has no key line", path)
}

// parseKeySpec parses a "name:algorithm:base64-secret" string given directly
// on the command line, the --key flag's counterpart to --key-file.
func parseKeySpec(spec string) (*dnsupdate.TSIGKey, error) {
	return parseKeyLine(spec)
}

func parseKeyLine(line string) (*dnsupdate.TSIGKey, error) {
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 {
		return nil, argumentError(fmt.Sprintf("key %q must be name:algorithm:secret", line))
	}
	name, algorithm, secret := parts[0], parts[1], parts[2]

	key, err := dnsupdate.NewTSIGKey(name, secret, algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errArgument, err)
	}
	return key, nil
}
