package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// Generator hands out opaque public identifiers.
type Generator interface {
	NewID() (string, error)
}

// RandomGenerator produces 32-character hex IDs drawn from crypto/rand.
type RandomGenerator struct {
	source io.Reader
}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{source: rand.Reader}
}

func (g *RandomGenerator) NewID() (string, error) {
	var buf [16]byte
	if _, err := io.ReadFull(g.source, buf[:]); err != nil {
		return "", fmt.Errorf("draw random id: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
