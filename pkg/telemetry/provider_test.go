package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

func TestNewSampler(t *testing.T) {
	tests := []struct {
		sampler string
		arg     string
		desc    string
	}{
		{"", "", "AlwaysOnSampler"},
		{"always_on", "", "AlwaysOnSampler"},
		{"always_off", "", "AlwaysOffSampler"},
		{"traceidratio", "0.5", "TraceIDRatioBased{0.5}"},
		{"parentbased_always_on", "", "ParentBased{root:AlwaysOnSampler"},
		{"parentbased_traceidratio", "0.1", "ParentBased{root:TraceIDRatioBased{0.1}"},
	}

	for _, tt := range tests {
		t.Run(tt.sampler, func(t *testing.T) {
			s := newSampler(&Config{Sampler: tt.sampler, SamplerArg: tt.arg})
			require.NotNil(t, s)
			assert.Contains(t, s.Description(), tt.desc)
		})
	}
}

func TestParseRatio(t *testing.T) {
	tests := map[string]float64{
		"":        1,
		"0.5":     0.5,
		"0":       0,
		"invalid": 1,
		"-0.5":    0,
		"1.5":     1,
	}
	for input, want := range tests {
		assert.Equal(t, want, parseRatio(input), input)
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource(&Config{
		ServiceName:    "classmeta",
		ServiceVersion: "test",
		ResourceAttrs:  map[string]string{"team": "build"},
	})
	require.NoError(t, err)

	set := res.Set()
	name, ok := set.Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "classmeta", name.AsString())

	team, ok := set.Value("team")
	require.True(t, ok)
	assert.Equal(t, "build", team.AsString())
}
