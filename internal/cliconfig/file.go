// Package cliconfig loads an optional YAML file supplying default flag
// values for repeated invocations against the same zone.
package cliconfig

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// File mirrors the CLI's flags using YAML-friendly types; explicit flags
// always override whatever is set here.
type File struct {
	Zone        string   `yaml:"zone,omitempty"`
	Server      string   `yaml:"server,omitempty"`
	Resolver    string   `yaml:"resolver,omitempty"`
	TTL         int      `yaml:"ttl,omitempty"`
	KeyFile     string   `yaml:"key_file,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
	Interval    string   `yaml:"interval,omitempty"`
	LogLevel    string   `yaml:"log_level,omitempty"`
	LogFormat   string   `yaml:"log_format,omitempty"`
	MetricsAddr string   `yaml:"metrics_addr,omitempty"`
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} and ${VAR:-default} occurrences in s.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

func (f *File) interpolate() {
	f.Zone = InterpolateEnvVars(f.Zone)
	f.Server = InterpolateEnvVars(f.Server)
	f.Resolver = InterpolateEnvVars(f.Resolver)
	f.KeyFile = InterpolateEnvVars(f.KeyFile)
	f.Timeout = InterpolateEnvVars(f.Timeout)
	f.Interval = InterpolateEnvVars(f.Interval)
	f.LogLevel = InterpolateEnvVars(f.LogLevel)
	f.LogFormat = InterpolateEnvVars(f.LogFormat)
	f.MetricsAddr = InterpolateEnvVars(f.MetricsAddr)
	for i := range f.Exclude {
		f.Exclude[i] = InterpolateEnvVars(f.Exclude[i])
	}
}

// Load reads and parses a YAML config file at path, interpolating
// environment variables in every string field.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing YAML config: %w", err)
	}
	f.interpolate()

	return &f, nil
}

// TimeoutDuration parses Timeout as a Go duration, returning fallback if unset or invalid.
func (f *File) TimeoutDuration(fallback time.Duration) time.Duration {
	return parseDurationOr(f.Timeout, fallback)
}

// IntervalDuration parses Interval as a Go duration, returning fallback if unset or invalid.
func (f *File) IntervalDuration(fallback time.Duration) time.Duration {
	return parseDurationOr(f.Interval, fallback)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}

// TTLOrDefault returns TTL if positive, else the given default.
func (f *File) TTLOrDefault(def uint32) uint32 {
	if f.TTL > 0 {
		return uint32(f.TTL)
	}
	return def
}

// ConfigFilePathFromEnv returns a config file path named by $TDNS_UPDATE_CONFIG.
func ConfigFilePathFromEnv() string {
	return strings.TrimSpace(os.Getenv("TDNS_UPDATE_CONFIG"))
}
