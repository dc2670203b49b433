package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeySelector(t *testing.T) {
	_, err := NewKeySelector("random", nil)
	assert.Error(t, err)

	_, err = NewKeySelector("sticky", []string{"a"})
	assert.Error(t, err)

	s, err := NewKeySelector("", []string{"a", "b"})
	require.NoError(t, err)
	assert.IsType(t, &RandomSelector{}, s)

	s, err = NewKeySelector("round-robin", []string{"a", "b"})
	require.NoError(t, err)
	assert.IsType(t, &RoundRobinSelector{}, s)
}

func TestRandomSelector_OnlyConfiguredKeys(t *testing.T) {
	keys := []string{"k1", "k2", "k3"}
	s := NewRandomSelector(keys)

	seen := map[string]int{}
	for i := 0; i < 300; i++ {
		seen[s.Next()]++
	}

	for k := range seen {
		assert.Contains(t, keys, k)
	}
	assert.Len(t, seen, 3, "expected every key to be picked at least once in 300 draws")
}

func TestRoundRobinSelector(t *testing.T) {
	s := NewRoundRobinSelector([]string{"a", "b", "c"})
	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, s.Next())
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, got)
}
