// store/actions.go
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BetJor/plantilla-sub000/models"
)

var ErrActionNotFound = errors.New("action not found")

// ActionStore holds the full ordered collection of actions in memory and
// writes it back whole on every change. The in-memory state stays
// authoritative for the session even when a write fails; persistence errors
// are returned so callers can surface an alert, never rolled back.
type ActionStore struct {
	blobs Blobs

	mu      sync.Mutex
	actions []models.Action
	// originalActionId -> ids of BIS actions derived from it. Keeps the
	// at-most-one-BIS guard O(1).
	bisIndex map[string][]string
}

func NewActionStore(ctx context.Context, blobs Blobs) (*ActionStore, error) {
	s := &ActionStore{blobs: blobs, bisIndex: make(map[string][]string)}
	var actions []models.Action
	err := blobs.Get(ctx, KeyActions, &actions)
	if err != nil && err != ErrNotFound {
		return nil, fmt.Errorf("load actions: %w", err)
	}
	s.actions = actions
	s.rebuildIndex()
	return s, nil
}

func (s *ActionStore) rebuildIndex() {
	s.bisIndex = make(map[string][]string)
	for _, a := range s.actions {
		if a.IsBis && a.OriginalActionID != "" {
			s.bisIndex[a.OriginalActionID] = append(s.bisIndex[a.OriginalActionID], a.ID)
		}
	}
}

// List returns a copy of the whole collection in insertion order.
func (s *ActionStore) List() []models.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Action, len(s.actions))
	copy(out, s.actions)
	return out
}

// Get returns the latest snapshot of one action. Callers must re-read
// before every mutation instead of holding a stale copy.
func (s *ActionStore) Get(id string) (models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.actions {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Action{}, ErrActionNotFound
}

// Insert appends a new action and persists the collection.
func (s *ActionStore) Insert(ctx context.Context, a models.Action) error {
	s.mu.Lock()
	s.actions = append(s.actions, a)
	if a.IsBis && a.OriginalActionID != "" {
		s.bisIndex[a.OriginalActionID] = append(s.bisIndex[a.OriginalActionID], a.ID)
	}
	snapshot := make([]models.Action, len(s.actions))
	copy(snapshot, s.actions)
	s.mu.Unlock()
	return s.blobs.Put(ctx, KeyActions, snapshot)
}

// Update replaces the stored action with the same id and persists.
func (s *ActionStore) Update(ctx context.Context, a models.Action) error {
	s.mu.Lock()
	found := false
	for i := range s.actions {
		if s.actions[i].ID == a.ID {
			s.actions[i] = a
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return ErrActionNotFound
	}
	s.rebuildIndex()
	snapshot := make([]models.Action, len(s.actions))
	copy(snapshot, s.actions)
	s.mu.Unlock()
	return s.blobs.Put(ctx, KeyActions, snapshot)
}

// BisFor returns the ids of BIS actions derived from the given original.
func (s *ActionStore) BisFor(originalID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.bisIndex[originalID]...)
}

// HasBis reports whether any BIS action already references originalID.
func (s *ActionStore) HasBis(originalID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bisIndex[originalID]) > 0
}
