package pipeline

import "sync"

// SequenceGenerator is a struct to hold a counter for generating the next
// incremental frame sequence number
type SequenceGenerator struct {
	seq int64
	sync.Mutex
}

// NewSequenceGenerator returns a generator starting at 1
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{}
}

// GetNext returns the next incremental number
func (s *SequenceGenerator) GetNext() int64 {
	s.Lock()
	defer s.Unlock()
	s.seq++
	return s.seq
}
