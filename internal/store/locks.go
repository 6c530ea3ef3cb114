package store

import "sync"

// Locker provides per-account mutual exclusion for mutating operations.
// Operations on different accounts proceed fully in parallel; only the
// lock map itself is shared.
type Locker struct {
	accountLocks map[string]*sync.Mutex
	mapMutex     sync.RWMutex
}

func NewLocker() *Locker {
	return &Locker{accountLocks: make(map[string]*sync.Mutex)}
}

// Lock locks the given account, creating its mutex on first use.
func (l *Locker) Lock(accountID string) {
	l.mapMutex.Lock()
	m := l.accountLocks[accountID]
	if m == nil {
		m = &sync.Mutex{}
		l.accountLocks[accountID] = m
	}
	l.mapMutex.Unlock()

	m.Lock()
}

// Unlock unlocks the given account.
func (l *Locker) Unlock(accountID string) {
	l.mapMutex.RLock()
	m := l.accountLocks[accountID]
	l.mapMutex.RUnlock()

	if m != nil {
		m.Unlock()
	}
}
