// Package memory is an in-process implementation of the repository
// contracts. It enforces the same unique keys and conditional updates as
// the MongoDB repository and backs the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

type row[T any] struct {
	seq int
	doc T
}

// Store keeps every collection in maps guarded by one mutex.
type Store struct {
	mu        sync.Mutex
	seq       int
	now       func() time.Time
	neera     map[string]row[models.CollectionRecord]
	batches   map[string]row[models.ProcessingBatch]
	inventory map[string]row[models.InventoryRecord]
	users     map[string]row[models.User]
	snapshots map[string]row[models.SummarySnapshot]
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:       time.Now,
		neera:     map[string]row[models.CollectionRecord]{},
		batches:   map[string]row[models.ProcessingBatch]{},
		inventory: map[string]row[models.InventoryRecord]{},
		users:     map[string]row[models.User]{},
		snapshots: map[string]row[models.SummarySnapshot]{},
	}
}

func (s *Store) next() int {
	s.seq++
	return s.seq
}

func newID() string { return uuid.NewString() }

func duplicate(entity, field, value string) error {
	return errs.DuplicateKey("a %s with %s %q already exists", entity, field, value)
}

// applySet emulates a MongoDB $set by round-tripping the document through BSON.
func applySet[T any](doc T, set map[string]any) (T, error) {
	var out T
	raw, err := bson.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("marshal document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return out, fmt.Errorf("unmarshal document: %w", err)
	}
	for k, v := range set {
		m[k] = v
	}
	raw, err = bson.Marshal(m)
	if err != nil {
		return out, fmt.Errorf("marshal update: %w", err)
	}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshal update: %w", err)
	}
	return out, nil
}

func sortedRows[T any](rows map[string]row[T], less func(a, b T) bool) []T {
	list := make([]row[T], 0, len(rows))
	for _, r := range rows {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if less(a.doc, b.doc) {
			return true
		}
		if less(b.doc, a.doc) {
			return false
		}
		return a.seq > b.seq
	})
	out := make([]T, 0, len(list))
	for _, r := range list {
		out = append(out, r.doc)
	}
	return out
}

func newestCreated[T any](createdAt func(T) time.Time) func(a, b T) bool {
	return func(a, b T) bool { return createdAt(a).After(createdAt(b)) }
}

// Collection records.

func (s *Store) InsertCollection(_ context.Context, rec *models.CollectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.neera {
		if r.doc.BatchID == rec.BatchID {
			return duplicate("neera collection", "batchId", rec.BatchID)
		}
	}
	if rec.ID == "" {
		rec.ID = newID()
	}
	s.neera[rec.ID] = row[models.CollectionRecord]{seq: s.next(), doc: *rec}
	return nil
}

func (s *Store) ListCollections(_ context.Context) ([]models.CollectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedRows(s.neera, func(a, b models.CollectionRecord) bool {
		return a.CollectionDate.After(b.CollectionDate)
	}), nil
}

func (s *Store) GetCollection(_ context.Context, id string) (*models.CollectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.neera[id]
	if !ok {
		return nil, errs.NotFound("neera collection not found")
	}
	doc := r.doc
	return &doc, nil
}

func (s *Store) UpdateCollection(_ context.Context, id string, set map[string]any) (*models.CollectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.neera[id]
	if !ok {
		return nil, errs.NotFound("neera collection not found")
	}
	if batchID, ok := set["batchId"].(string); ok {
		for otherID, other := range s.neera {
			if otherID != id && other.doc.BatchID == batchID {
				return nil, duplicate("neera collection", "batchId", batchID)
			}
		}
	}
	doc, err := applySet(r.doc, withUpdatedAt(set, s.now()))
	if err != nil {
		return nil, err
	}
	r.doc = doc
	s.neera[id] = r
	return &doc, nil
}

func (s *Store) DeleteCollection(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.neera[id]; !ok {
		return errs.NotFound("neera collection not found")
	}
	delete(s.neera, id)
	return nil
}

func withUpdatedAt(set map[string]any, now time.Time) map[string]any {
	out := map[string]any{"updatedAt": now}
	for k, v := range set {
		out[k] = v
	}
	return out
}
