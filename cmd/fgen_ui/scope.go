package main

import (
	"sync"

	"github.com/cbegin/funcgen-go/internal/wave"
)

const scopeLen = 4096

// scope keeps the most recent samples of one trace.
type scope struct {
	mu       sync.Mutex
	ring     []float32
	writePos int
}

func newScope() *scope {
	return &scope{ring: make([]float32, scopeLen)}
}

// WriteCodes makes the scope a DMA sink. Codes are stored as DAC volts.
func (s *scope) WriteCodes(codes []uint16) {
	s.mu.Lock()
	for _, c := range codes {
		s.ring[s.writePos] = float32(wave.CodeToVolts(c))
		s.writePos = (s.writePos + 1) % scopeLen
	}
	s.mu.Unlock()
}

// Tap takes mono samples from the audio output.
func (s *scope) Tap(samples []float32) {
	s.mu.Lock()
	for _, x := range samples {
		s.ring[s.writePos] = x
		s.writePos = (s.writePos + 1) % scopeLen
	}
	s.mu.Unlock()
}

// Snapshot copies the latest n samples, oldest first.
func (s *scope) Snapshot(n int) []float32 {
	if n > scopeLen {
		n = scopeLen
	}
	out := make([]float32, n)
	s.mu.Lock()
	start := (s.writePos - n + scopeLen) % scopeLen
	for i := range out {
		out[i] = s.ring[(start+i)%scopeLen]
	}
	s.mu.Unlock()
	return out
}

// findRisingCrossing returns the first index where samples cross level
// upwards, to hold the trace still.
func findRisingCrossing(samples []float32, level float32, searchLen int) int {
	if searchLen > len(samples)-2 {
		searchLen = len(samples) - 2
	}
	for i := 1; i < searchLen; i++ {
		if samples[i-1] <= level && samples[i] > level {
			return i
		}
	}
	return 0
}
