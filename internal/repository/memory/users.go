package memory

import (
	"context"
	"time"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

func (s *Store) InsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.users {
		if r.doc.Email == user.Email {
			return duplicate("user", "email", user.Email)
		}
	}
	if user.ID == "" {
		user.ID = newID()
	}
	s.users[user.ID] = row[models.User]{seq: s.next(), doc: *user}
	return nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.users {
		if r.doc.Email == email {
			u := r.doc
			return &u, nil
		}
	}
	return nil, errs.NotFound("user not found")
}

func (s *Store) FindUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.users[id]
	if !ok {
		return nil, errs.NotFound("user not found")
	}
	u := r.doc
	return &u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedRows(s.users, newestCreated(func(u models.User) time.Time { return u.CreatedAt })), nil
}

func (s *Store) SetUserVerified(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.users[id]
	if !ok {
		return nil, errs.NotFound("user not found")
	}
	r.doc.IsVerified = true
	r.doc.UpdatedAt = s.now()
	s.users[id] = r
	u := r.doc
	return &u, nil
}

func (s *Store) SaveSnapshot(_ context.Context, snapshot *models.SummarySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snapshot.ID == "" {
		snapshot.ID = newID()
	}
	s.snapshots[snapshot.ID] = row[models.SummarySnapshot]{seq: s.next(), doc: *snapshot}
	return nil
}

func (s *Store) ListSnapshots(_ context.Context, limit int) ([]models.SummarySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := sortedRows(s.snapshots, newestCreated(func(snap models.SummarySnapshot) time.Time { return snap.TakenAt }))
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
