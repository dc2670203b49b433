package source

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
)

// KeySelector picks the credential for the next outbound call
type KeySelector interface {
	Next() string
}

// NewKeySelector builds a selector by strategy name: "random" (default) or "round-robin"
func NewKeySelector(strategy string, keys []string) (KeySelector, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("no API keys configured")
	}

	switch strategy {
	case "", "random":
		return NewRandomSelector(keys), nil
	case "round-robin", "roundrobin":
		return NewRoundRobinSelector(keys), nil
	default:
		return nil, fmt.Errorf("unknown key selector: %s (supported: random, round-robin)", strategy)
	}
}

// RandomSelector picks a key uniformly at random on every call
type RandomSelector struct {
	keys []string
}

// NewRandomSelector creates a random selector over a copy of keys
func NewRandomSelector(keys []string) *RandomSelector {
	return &RandomSelector{keys: append([]string(nil), keys...)}
}

// Next returns a random key
func (s *RandomSelector) Next() string {
	return s.keys[rand.IntN(len(s.keys))]
}

// RoundRobinSelector cycles through keys in order
type RoundRobinSelector struct {
	keys []string
	next atomic.Uint64
}

// NewRoundRobinSelector creates a round-robin selector over a copy of keys
func NewRoundRobinSelector(keys []string) *RoundRobinSelector {
	return &RoundRobinSelector{keys: append([]string(nil), keys...)}
}

// Next returns the next key in rotation
func (s *RoundRobinSelector) Next() string {
	n := s.next.Add(1) - 1
	return s.keys[n%uint64(len(s.keys))]
}

// StaticKey always returns the same key
type StaticKey string

// Next returns the key
func (k StaticKey) Next() string {
	return string(k)
}
