package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a, b := New(), New()

	assert.True(t, IsUUID(a))
	assert.NotEqual(t, a, b)
}

func TestIsUUID(t *testing.T) {
	assert.False(t, IsUUID(""))
	assert.False(t, IsUUID("not-a-uuid"))
	assert.True(t, IsUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
}

func TestGenerate(t *testing.T) {
	got, err := Generate("tgr")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "tgr-"))
	assert.Len(t, got, len("tgr-")+21)
}

func TestMustGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		v := MustGenerate("sti")
		assert.False(t, seen[v])
		seen[v] = true
	}
}
