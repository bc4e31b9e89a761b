package wave

import "sync"

// Shared is the single current Config, written by the front panel and read
// once per block by the producer. It performs no validation.
type Shared struct {
	mu  sync.Mutex
	cfg Config
}

// NewShared returns a Shared holding cfg.
func NewShared(cfg Config) *Shared {
	return &Shared{cfg: cfg}
}

// Get returns a copy of the current config.
func (s *Shared) Get() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Set replaces the current config. The producer picks it up at the next
// block boundary.
func (s *Shared) Set(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}
