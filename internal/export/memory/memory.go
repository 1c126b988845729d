// Package memory is an in-process SummaryWriter for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/core"
)

type Entry struct {
	OwnerID string
	Summary core.Summary
}

type Store struct {
	mu    sync.Mutex
	items []Entry
}

func New() *Store {
	return &Store{}
}

// WriteSummary records the summary and returns a synthetic row reference.
func (s *Store) WriteSummary(_ context.Context, ownerID string, sum core.Summary) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, Entry{OwnerID: ownerID, Summary: sum})
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Entries returns a copy of everything written so far.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.items...)
}
