package pprof

import (
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfileTypes(t *testing.T) {
	types, err := ParseProfileTypes("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfileTypes(), types)

	types, err = ParseProfileTypes(" CPU, goroutine ")
	require.NoError(t, err)
	assert.Equal(t, []ProfileType{ProfileCPU, ProfileGoroutine}, types)

	_, err = ParseProfileTypes("cpu,disk")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, (&Config{Mode: "tcp"}).Validate())
	assert.Error(t, (&Config{Mode: ModeFile, Profiles: DefaultProfileTypes()}).Validate())
	assert.Error(t, (&Config{Mode: ModeFile, OutputDir: "x"}).Validate())
	assert.Error(t, (&Config{Mode: ModeHTTP}).Validate())
}

func TestCollector_FileMode(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCollector(&Config{Mode: ModeFile, OutputDir: dir, Profiles: []ProfileType{ProfileHeap, ProfileGoroutine}})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, c.Start())
	assert.Error(t, c.Start())
	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())

	assert.Equal(t, []string{
		filepath.Join(dir, "heap-20240102-030405.pprof"),
		filepath.Join(dir, "goroutine-20240102-030405.pprof"),
	}, c.Files())
	for _, f := range c.Files() {
		assert.FileExists(t, f)
	}
}

func TestCollector_HTTPMode(t *testing.T) {
	c, err := NewCollector(&Config{Mode: ModeHTTP, Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	require.NoError(t, c.Start())
	defer c.Stop()

	resp, err := http.Get("http://" + c.Addr() + "/debug/pprof/cmdline")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = io.ReadAll(resp.Body)
	assert.NoError(t, err)
}
