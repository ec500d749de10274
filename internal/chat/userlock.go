package chat

import "sync"

// userLocks serializes turns per user while letting different users' turns
// run concurrently. Entries are never evicted; the per-user cost is one
// mutex, which is acceptable for the expected user counts.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for userID and returns its release function.
func (l *userLocks) acquire(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
