package server

import (
	"sync"
	"time"

	"github.com/goliatone/go-docfill/pkg/session"
)

type editorEntry struct {
	editor   *session.Editor
	lastSeen time.Time
}

// editorSessions holds open section editors. Sessions idle for longer than
// ttl are dropped on the next put or get. Zero ttl keeps them until closed.
type editorSessions struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items map[string]editorEntry
}

func newEditorSessions(ttl time.Duration) *editorSessions {
	return &editorSessions{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]editorEntry),
	}
}

func (s *editorSessions) put(id string, editor *session.Editor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.items[id] = editorEntry{editor: editor, lastSeen: now}
}

func (s *editorSessions) get(id string) (*session.Editor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	entry, ok := s.items[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = now
	s.items[id] = entry
	return entry.editor, true
}

func (s *editorSessions) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	return true
}

func (s *editorSessions) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// sweep must be called with mu held.
func (s *editorSessions) sweep(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, entry := range s.items {
		if now.Sub(entry.lastSeen) >= s.ttl {
			delete(s.items, id)
		}
	}
}
