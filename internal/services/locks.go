package services

import (
	"sync"

	"github.com/google/uuid"
)

// OwnerLocks serializes mutating operations per owner. The cycle check in
// a folder move, the sibling-uniqueness check on create, and recursive
// delete all read tree state and then write it; holding the owner's lock
// across the read and the transaction keeps those check-then-act sequences
// atomic against concurrent mutations of the same tree. Different owners'
// trees never interact, so their operations run concurrently.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock acquires the mutex for ownerID and returns the release function.
func (l *OwnerLocks) Lock(ownerID uuid.UUID) func() {
	l.mu.Lock()
	lock, ok := l.locks[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[ownerID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
