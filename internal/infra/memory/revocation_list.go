package memory

import (
	"context"
	"sync"
	"time"
)

// RevocationList is an in-memory implementation of app.RevocationRepository.
// Expired entries are purged lazily on write.
type RevocationList struct {
	mu      sync.Mutex
	clock   func() time.Time
	revoked map[string]time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{
		clock:   time.Now,
		revoked: make(map[string]time.Time),
	}
}

func (l *RevocationList) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	for id, until := range l.revoked {
		if !until.After(now) {
			delete(l.revoked, id)
		}
	}
	l.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (l *RevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.revoked[tokenID]
	return ok && until.After(l.clock()), nil
}
