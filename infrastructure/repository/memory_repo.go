package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"digitlens-go/domain/history"
)

// MemoryHistoryRepository keeps history records in process memory.
type MemoryHistoryRepository struct {
	mu      sync.RWMutex
	records map[int64][]*history.Record
}

// NewMemoryHistoryRepository creates an empty in-memory repository.
func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{
		records: make(map[int64][]*history.Record),
	}
}

// Insert stores a copy of rec under a fresh UUID.
func (r *MemoryHistoryRepository) Insert(ctx context.Context, rec *history.Record) error {
	rec.ID = uuid.NewString()
	stored := *rec

	r.mu.Lock()
	r.records[rec.ChatID] = append(r.records[rec.ChatID], &stored)
	r.mu.Unlock()
	return nil
}

// FindByChat returns copies of up to limit records, newest first.
func (r *MemoryHistoryRepository) FindByChat(ctx context.Context, chatID int64, limit int) ([]*history.Record, error) {
	r.mu.RLock()
	stored := r.records[chatID]
	out := make([]*history.Record, len(stored))
	for i, rec := range stored {
		c := *rec
		out[len(stored)-1-i] = &c
	}
	r.mu.RUnlock()

	// later inserts win ties between equal timestamps
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteByChat drops all records of a chat.
func (r *MemoryHistoryRepository) DeleteByChat(ctx context.Context, chatID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.records[chatID]))
	delete(r.records, chatID)
	return n, nil
}

var _ history.Repository = (*MemoryHistoryRepository)(nil)
