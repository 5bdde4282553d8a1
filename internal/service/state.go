package service

import "sync/atomic"

// QueryState hands out monotonically increasing sequence numbers for
// availability queries and decides which responses may still be applied.
// Every field change on the booking form issues a new query; a response
// whose sequence was superseded before completion is discarded on arrival,
// never applied to displayed state.
type QueryState struct {
	issued  atomic.Uint64
	applied atomic.Uint64
}

// Next reserves the sequence number for a new query.
func (s *QueryState) Next() uint64 {
	return s.issued.Add(1)
}

// Latest returns the most recently issued sequence number.
func (s *QueryState) Latest() uint64 {
	return s.issued.Load()
}

// TryApply marks seq as the displayed response if no newer response has
// been applied and no newer query has been issued. Last write wins.
func (s *QueryState) TryApply(seq uint64) bool {
	if seq != s.issued.Load() {
		return false
	}
	for {
		current := s.applied.Load()
		if seq <= current {
			return false
		}
		if s.applied.CompareAndSwap(current, seq) {
			return true
		}
	}
}
