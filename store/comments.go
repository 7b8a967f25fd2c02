// store/comments.go
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/BetJor/plantilla-sub000/models"
)

type CommentStore struct {
	blobs Blobs

	mu       sync.Mutex
	comments []models.Comment
}

func NewCommentStore(ctx context.Context, blobs Blobs) (*CommentStore, error) {
	s := &CommentStore{blobs: blobs}
	var comments []models.Comment
	err := blobs.Get(ctx, KeyComments, &comments)
	if err != nil && err != ErrNotFound {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	s.comments = comments
	return s, nil
}

func (s *CommentStore) ListForAction(actionID string) []models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Comment
	for _, c := range s.comments {
		if c.ActionID == actionID {
			out = append(out, c)
		}
	}
	return out
}

func (s *CommentStore) Insert(ctx context.Context, c models.Comment) error {
	s.mu.Lock()
	s.comments = append(s.comments, c)
	snapshot := make([]models.Comment, len(s.comments))
	copy(snapshot, s.comments)
	s.mu.Unlock()
	return s.blobs.Put(ctx, KeyComments, snapshot)
}
