package ledger

// defaultDedupeWindow is how many recent event identities a ledger remembers.
const defaultDedupeWindow = 4096

// seenSet remembers the most recent identities in insertion order and forgets
// the oldest once full. It is not safe for concurrent use; ledgers guard it
// with their own lock.
type seenSet struct {
	ring []uint64
	next int
	full bool
	set  map[uint64]struct{}
}

func newSeenSet(limit int) *seenSet {
	if limit <= 0 {
		limit = defaultDedupeWindow
	}
	return &seenSet{
		ring: make([]uint64, limit),
		set:  make(map[uint64]struct{}, limit),
	}
}

// add records id and reports whether it was new.
func (s *seenSet) add(id uint64) bool {
	if _, ok := s.set[id]; ok {
		return false
	}
	if s.full {
		delete(s.set, s.ring[s.next])
	}
	s.ring[s.next] = id
	s.set[id] = struct{}{}
	s.next++
	if s.next == len(s.ring) {
		s.next = 0
		s.full = true
	}
	return true
}

func (s *seenSet) reset() {
	clear(s.set)
	s.next = 0
	s.full = false
}
