package search

import (
	"sort"
	"sync"

	"github.com/anveshak/tilesearch/internal/domain"
)

// session tracks which zoom levels have been searched for one annotation.
// Sessions are in-memory and reset whenever a new initial search runs for
// the same annotation.
type session struct {
	scope    domain.Scope
	searched map[int]bool
	deepened bool
}

// Sessions is the in-memory per-annotation search session store.
type Sessions struct {
	mu sync.Mutex
	m  map[string]*session
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]*session)}
}

// StartInitial records a completed first-stage search, replacing any
// previous session for the annotation.
func (s *Sessions) StartInitial(id string, scope domain.Scope, zoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = &session{scope: scope, searched: map[int]bool{zoom: true}}
}

// Scope returns the dataset scope pinned by the initial search. ok is
// false when no session exists.
func (s *Sessions) Scope(id string) (domain.Scope, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.m[id]
	if !ok {
		return domain.Scope{}, false
	}
	return sess.scope, true
}

// ClaimRemaining atomically computes the zoom levels still to search
// (available minus exclude minus already searched), marks them searched
// and flags the session deepened. Returns domain.ErrSearchNotStarted when
// no initial search has run for the annotation.
func (s *Sessions) ClaimRemaining(id string, available, exclude []int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.m[id]
	if !ok {
		return nil, domain.ErrSearchNotStarted
	}

	skip := make(map[int]bool, len(exclude))
	for _, z := range exclude {
		skip[z] = true
	}

	remaining := make([]int, 0, len(available))
	for _, z := range available {
		if skip[z] || sess.searched[z] {
			continue
		}
		sess.searched[z] = true
		remaining = append(remaining, z)
	}
	sess.deepened = true
	sort.Ints(remaining)

	return remaining, nil
}

// Unclaim reverts claimed zooms after a failed deepen so a retry can
// search them again.
func (s *Sessions) Unclaim(id string, zooms []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.m[id]
	if !ok {
		return
	}
	for _, z := range zooms {
		delete(sess.searched, z)
	}
}

// SearchedZooms returns the zooms searched so far, ascending. ok is false
// when no session exists.
func (s *Sessions) SearchedZooms(id string) ([]int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.m[id]
	if !ok {
		return nil, false
	}
	zooms := make([]int, 0, len(sess.searched))
	for z := range sess.searched {
		zooms = append(zooms, z)
	}
	sort.Ints(zooms)
	return zooms, true
}

// Forget drops the session for an annotation. Used on delete.
func (s *Sessions) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}
