package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	locks := newKeyLock(time.Minute)

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("same")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, counter)
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	locks := newKeyLock(time.Minute)

	unlockA := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
	unlockA()
}

func TestKeyLock_EvictsIdleEntries(t *testing.T) {
	locks := newKeyLock(10 * time.Millisecond)

	locks.Lock("old")()
	time.Sleep(50 * time.Millisecond)
	locks.Lock("new")()

	locks.mutex.Lock()
	defer locks.mutex.Unlock()
	assert.NotContains(t, locks.entries, "old")
	assert.Contains(t, locks.entries, "new")
}

func TestKeyLock_HeldEntrySurvivesEviction(t *testing.T) {
	locks := newKeyLock(10 * time.Millisecond)

	unlock := locks.Lock("held")
	time.Sleep(50 * time.Millisecond)
	locks.Lock("trigger")() // new key, runs cleanup

	acquired := make(chan struct{})
	go func() {
		locks.Lock("held")()
		close(acquired)
	}()

	// The entry outlived its TTL but is still held; a second Lock on
	// the same key must wait, not get a fresh mutex.
	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first was still held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock never handed over after unlock")
	}
}
