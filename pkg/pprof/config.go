// Package pprof profiles the running process. File mode records a CPU
// profile for the lifetime of the collector and writes snapshot profiles
// when it stops; HTTP mode serves the net/http/pprof endpoints.
package pprof

import (
	"fmt"
	"strings"
)

// ModeType defines the pprof collection mode.
type ModeType string

const (
	// ModeFile writes profile data to files.
	ModeFile ModeType = "file"
	// ModeHTTP exposes pprof endpoints via HTTP for on-demand collection.
	ModeHTTP ModeType = "http"
)

// ProfileType defines the type of profile to collect.
type ProfileType string

const (
	ProfileCPU       ProfileType = "cpu"
	ProfileHeap      ProfileType = "heap"
	ProfileGoroutine ProfileType = "goroutine"
	ProfileAllocs    ProfileType = "allocs"
)

var validProfiles = map[ProfileType]bool{
	ProfileCPU:       true,
	ProfileHeap:      true,
	ProfileGoroutine: true,
	ProfileAllocs:    true,
}

// DefaultProfileTypes returns the profiles collected when none are named.
func DefaultProfileTypes() []ProfileType {
	return []ProfileType{ProfileCPU, ProfileHeap}
}

// ParseProfileTypes parses a comma-separated list such as "cpu,heap".
func ParseProfileTypes(s string) ([]ProfileType, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultProfileTypes(), nil
	}

	parts := strings.Split(s, ",")
	types := make([]ProfileType, 0, len(parts))
	for _, p := range parts {
		pt := ProfileType(strings.TrimSpace(strings.ToLower(p)))
		if !validProfiles[pt] {
			return nil, fmt.Errorf("unknown profile type: %q", p)
		}
		types = append(types, pt)
	}
	return types, nil
}

// Config holds the pprof configuration.
type Config struct {
	Mode      ModeType
	OutputDir string
	Profiles  []ProfileType
	Addr      string // listen address in HTTP mode
}

// DefaultConfig returns file mode writing CPU and heap profiles to ./pprof.
func DefaultConfig() *Config {
	return &Config{
		Mode:      ModeFile,
		OutputDir: "./pprof",
		Profiles:  DefaultProfileTypes(),
		Addr:      "localhost:6060",
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeFile:
		if c.OutputDir == "" {
			return fmt.Errorf("output directory is required in file mode")
		}
		if len(c.Profiles) == 0 {
			return fmt.Errorf("at least one profile type is required")
		}
	case ModeHTTP:
		if c.Addr == "" {
			return fmt.Errorf("listen address is required in http mode")
		}
	default:
		return fmt.Errorf("invalid pprof mode: %q (valid: file, http)", c.Mode)
	}
	return nil
}

func (c *Config) has(pt ProfileType) bool {
	for _, p := range c.Profiles {
		if p == pt {
			return true
		}
	}
	return false
}
