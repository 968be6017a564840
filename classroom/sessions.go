package classroom

import "sync"

type sessionKey struct {
	userID   uint
	lessonID uint
}

// SessionRegistry holds the in-flight quiz sessions for the process, one
// per (learner, lesson). Sessions are ephemeral and never persisted; they
// are dropped on submit or when the learner abandons them.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[sessionKey]*Session)}
}

// Get returns the learner's open session for a lesson, if any.
func (r *SessionRegistry) Get(userID, lessonID uint) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionKey{userID, lessonID}]
	return s, ok
}

// Put stores a session, replacing any abandoned one for the same lesson.
func (r *SessionRegistry) Put(userID uint, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionKey{userID, s.LessonID}] = s
}

// Remove drops a session after scoring or abandonment.
func (r *SessionRegistry) Remove(userID, lessonID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionKey{userID, lessonID})
}
