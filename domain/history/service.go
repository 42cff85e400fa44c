package history

import (
	"context"
	"errors"
	"sort"
	"time"

	"digitlens-go/domain/recognition"
)

// ErrInvalidLimit is returned for non-positive history limits.
var ErrInvalidLimit = errors.New("history limit must be positive")

// Repository defines persistence for history records.
type Repository interface {
	// Insert stores a record and sets its ID.
	Insert(ctx context.Context, r *Record) error

	// FindByChat returns up to limit records of a chat, newest first.
	FindByChat(ctx context.Context, chatID int64, limit int) ([]*Record, error)

	// DeleteByChat removes all records of a chat and returns how many were removed.
	DeleteByChat(ctx context.Context, chatID int64) (int64, error)
}

// Service records predictions and answers history queries.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new history service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Add stores pred as the latest record of chatID.
func (s *Service) Add(ctx context.Context, chatID int64, pred *recognition.Prediction, source string) (*Record, error) {
	rec := NewRecord(chatID, pred, source, s.now().UTC())
	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Recent returns the last limit records of chatID, newest first.
func (s *Service) Recent(ctx context.Context, chatID int64, limit int) ([]*Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	records, err := s.repo.FindByChat(ctx, chatID, limit)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Clear deletes the history of chatID.
func (s *Service) Clear(ctx context.Context, chatID int64) (int64, error) {
	return s.repo.DeleteByChat(ctx, chatID)
}
