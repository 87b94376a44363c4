package service

import (
	"sync"
	"time"
)

// keyLock serializes work per string key. Google sign-in uses it to keep
// concurrent first-time logins for the same identity from creating
// duplicate users. Entries idle longer than ttl are dropped; entries with
// a holder or a waiter stay, whatever their age.
type keyLock struct {
	mutex   sync.Mutex
	entries map[string]*keyLockEntry
	ttl     time.Duration
}

type keyLockEntry struct {
	mu       sync.Mutex
	holds    int
	lastSeen time.Time
}

func newKeyLock(ttl time.Duration) *keyLock {
	return &keyLock{
		entries: make(map[string]*keyLockEntry),
		ttl:     ttl,
	}
}

func (l *keyLock) Lock(key string) func() {
	entry := l.acquire(key)
	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.release(entry)
	}
}

func (l *keyLock) acquire(key string) *keyLockEntry {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		entry = &keyLockEntry{}
		l.entries[key] = entry
	}
	entry.holds++
	entry.lastSeen = time.Now()
	if !ok {
		l.cleanup()
	}
	return entry
}

func (l *keyLock) release(entry *keyLockEntry) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	entry.holds--
	entry.lastSeen = time.Now()
}

func (l *keyLock) cleanup() {
	if l.ttl == 0 {
		return
	}
	cutoff := time.Now().Add(-l.ttl)
	for key, entry := range l.entries {
		if entry.holds == 0 && entry.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}
