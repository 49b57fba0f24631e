package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classPayload = append([]byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x00, 0x00, 0x34},
	bytes.Repeat([]byte("java/lang/Object"), 64)...)

func TestCompressors(t *testing.T) {
	zstdC, err := NewZstdCompressor(LevelDefault)
	require.NoError(t, err)
	defer zstdC.Close()

	tests := []struct {
		name string
		c    Compressor
		typ  Type
	}{
		{"gzip", NewGzipCompressor(LevelDefault), TypeGzip},
		{"gzip fastest", NewGzipCompressor(LevelFastest), TypeGzip},
		{"zstd", zstdC, TypeZstd},
		{"none", NoOpCompressor{}, TypeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := tt.c.Compress(classPayload)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, tt.c.Type())
			assert.Equal(t, tt.typ, DetectType(compressed))

			decompressed, err := tt.c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, classPayload, decompressed)

			auto, err := AutoDecompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, classPayload, auto)
		})
	}
}

func TestZstdCompressor_Shrinks(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	compressed, err := c.Compress(classPayload)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(classPayload))
}

func TestZstdCompressor_CorruptInput(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, err = c.Decompress([]byte{0x28, 0xb5, 0x2f, 0xfd, 0xff, 0xff})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	for _, typ := range []Type{TypeNone, TypeGzip, TypeZstd} {
		c, err := New(typ, LevelFastest)
		require.NoError(t, err)
		assert.Equal(t, typ, c.Type())
	}

	_, err := New(Type(42), LevelDefault)
	assert.Error(t, err)
}

func TestParseType(t *testing.T) {
	tests := map[string]Type{"": TypeNone, "none": TypeNone, "gzip": TypeGzip, "zstd": TypeZstd}
	for name, want := range tests {
		got, err := ParseType(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		if name != "" {
			assert.Equal(t, name, got.String())
		}
	}

	_, err := ParseType("brotli")
	assert.Error(t, err)
	assert.Equal(t, "Type(7)", Type(7).String())
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, TypeNone, DetectType(nil))
	assert.Equal(t, TypeNone, DetectType([]byte{0xCA, 0xFE, 0xBA, 0xBE}))
	assert.Equal(t, TypeGzip, DetectType([]byte{0x1f, 0x8b}))
	assert.Equal(t, TypeZstd, DetectType([]byte{0x28, 0xb5, 0x2f, 0xfd}))
}
