package pprof

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"
	"runtime"
	rtpprof "runtime/pprof"
	"sync"
	"time"
)

// Collector profiles the process between Start and Stop.
type Collector struct {
	config *Config
	now    func() time.Time

	mu      sync.Mutex
	running bool
	cpuFile *os.File
	server  *http.Server
	addr    string
	written []string
}

// NewCollector creates a collector. A nil config uses DefaultConfig.
func NewCollector(cfg *Config) (*Collector, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Collector{config: cfg, now: time.Now}, nil
}

// Start begins collection.
func (c *Collector) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("collector is already running")
	}

	var err error
	if c.config.Mode == ModeHTTP {
		err = c.startHTTP()
	} else {
		err = c.startFile()
	}
	if err != nil {
		return err
	}
	c.running = true
	return nil
}

func (c *Collector) startFile() error {
	if err := os.MkdirAll(c.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if !c.config.has(ProfileCPU) {
		return nil
	}
	f, err := os.Create(c.path(ProfileCPU))
	if err != nil {
		return fmt.Errorf("failed to create cpu profile: %w", err)
	}
	if err := rtpprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to start cpu profile: %w", err)
	}
	c.cpuFile = f
	return nil
}

func (c *Collector) startHTTP() error {
	ln, err := net.Listen("tcp", c.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.config.Addr, err)
	}
	c.addr = ln.Addr().String()
	c.server = &http.Server{Handler: Handler(), ReadHeaderTimeout: 10 * time.Second}
	go c.server.Serve(ln)
	return nil
}

// Stop ends collection. In file mode the CPU profile is closed and the
// snapshot profiles are written.
func (c *Collector) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false

	if c.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := c.server.Shutdown(ctx)
		c.server = nil
		return err
	}

	var errs []error
	if c.cpuFile != nil {
		rtpprof.StopCPUProfile()
		errs = append(errs, c.cpuFile.Close())
		c.written = append(c.written, c.cpuFile.Name())
		c.cpuFile = nil
	}
	for _, pt := range c.config.Profiles {
		if pt == ProfileCPU {
			continue
		}
		errs = append(errs, c.writeLookup(pt))
	}
	return errors.Join(errs...)
}

func (c *Collector) writeLookup(pt ProfileType) error {
	p := rtpprof.Lookup(string(pt))
	if p == nil {
		return fmt.Errorf("profile %s not available", pt)
	}
	if pt == ProfileHeap {
		runtime.GC()
	}
	name := c.path(pt)
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s profile: %w", pt, err)
	}
	if err := p.WriteTo(f, 0); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s profile: %w", pt, err)
	}
	c.written = append(c.written, name)
	return f.Close()
}

func (c *Collector) path(pt ProfileType) string {
	return filepath.Join(c.config.OutputDir, fmt.Sprintf("%s-%s.pprof", pt, c.now().Format("20060102-150405")))
}

// Files returns the profiles written by Stop.
func (c *Collector) Files() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

// Addr returns the address served in HTTP mode.
func (c *Collector) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// Handler returns a mux serving the pprof endpoints under /debug/pprof/.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}
