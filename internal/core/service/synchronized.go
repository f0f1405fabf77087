package service

import "sync"

// Synchronized serializes calls into an InventoryService shared by several
// goroutines, such as the HTTP and gRPC handlers.
type Synchronized struct {
	mu  sync.Mutex
	svc *InventoryService
}

func NewSynchronized(svc *InventoryService) *Synchronized {
	return &Synchronized{svc: svc}
}

// Do runs fn while holding the lock.
func (s *Synchronized) Do(fn func(svc *InventoryService) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.svc)
}
