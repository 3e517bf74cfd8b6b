package stations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	registry := Default()
	require.NotNil(t, registry)
	assert.Greater(t, registry.Len(), 10)

	code, ok := registry.CodeForName("Milano Centrale")
	assert.True(t, ok)
	assert.Equal(t, "S01700", code)

	code, ok = registry.CodeForName("  firenze   s.m.n. ")
	assert.True(t, ok)
	assert.Equal(t, "S06421", code)

	name, ok := registry.NameForCode("s08409")
	assert.True(t, ok)
	assert.Equal(t, "ROMA TERMINI", name)

	_, ok = registry.CodeForName("Nowhere")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	registry, err := Load([]byte("name,code,region,aliases\nTEST,S1,1,T1;T2\n"))
	require.NoError(t, err)

	for _, name := range []string{"TEST", "t1", "T2"} {
		code, ok := registry.CodeForName(name)
		assert.True(t, ok, name)
		assert.Equal(t, "S1", code)
	}

	var nilRegistry *Registry
	_, ok := nilRegistry.CodeForName("TEST")
	assert.False(t, ok)
}

func TestNormaliseName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"MILANO CENTRALE", "Milano Centrale"},
		{"  roma   termini ", "Roma Termini"},
		{"Milano Centrale", "Milano Centrale"},
		{"--", "--"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormaliseName(tc.input))
		})
	}
}
