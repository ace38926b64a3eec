// Package memory keeps users and sessions in process memory. It backs the
// "memory" storage mode and mirrors the PostgreSQL repositories' semantics:
// unique emails, one session per user, newest-first listing and the
// soft-delete filter.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkit/internal/common"
	"github.com/dmitrijs2005/authkit/internal/server/models"
)

// Store is the shared state behind UsersRepository and SessionsRepository.
type Store struct {
	mu       sync.RWMutex
	users    map[int64]*models.User
	sessions map[int64]*models.Session
	nextUser int64
	nextSess int64
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]*models.User),
		sessions: make(map[int64]*models.Session),
		now:      time.Now,
	}
}

// Users returns a users repository over the store.
func (s *Store) Users(excludeDeleted bool) *UsersRepository {
	return &UsersRepository{s: s, excludeDeleted: excludeDeleted}
}

// Sessions returns a sessions repository over the store.
func (s *Store) Sessions() *SessionsRepository {
	return &SessionsRepository{s: s}
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.DeletedAt != nil {
		t := *u.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

func copySession(in *models.Session) *models.Session {
	c := *in
	if in.RefreshTokenHash != nil {
		h := *in.RefreshTokenHash
		c.RefreshTokenHash = &h
	}
	if in.RefreshTokenExpiresAt != nil {
		e := *in.RefreshTokenExpiresAt
		c.RefreshTokenExpiresAt = &e
	}
	return &c
}

// UsersRepository implements users.Repository.
type UsersRepository struct {
	s              *Store
	excludeDeleted bool
}

func (r *UsersRepository) visible(u *models.User) bool {
	return !r.excludeDeleted || !u.Deleted()
}

func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email && r.visible(u) {
			return copyUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok || !r.visible(u) {
		return nil, common.ErrorNotFound
	}
	return copyUser(u), nil
}

func (r *UsersRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return nil, common.ErrorAlreadyExists
		}
	}

	r.s.nextUser++
	now := r.s.now()
	user.ID = r.s.nextUser
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = copyUser(user)

	return user, nil
}

func (r *UsersRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[user.ID]
	if !ok || !r.visible(u) {
		return nil, common.ErrorNotFound
	}

	u.ProfileName = user.ProfileName
	u.Role = user.Role
	u.IsActive = user.IsActive
	u.UpdatedAt = r.s.now()
	user.UpdatedAt = u.UpdatedAt

	return user, nil
}

func (r *UsersRepository) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	if skip < 0 || limit < 0 {
		return nil, fmt.Errorf("invalid window skip=%d limit=%d", skip, limit)
	}

	r.s.mu.RLock()
	all := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if r.visible(u) {
			all = append(all, copyUser(u))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if skip >= len(all) {
		return []*models.User{}, nil
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *UsersRepository) SoftDelete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || u.Deleted() {
		return common.ErrorNotFound
	}

	now := r.s.now()
	u.DeletedAt = &now
	u.IsActive = false
	u.UpdatedAt = now
	return nil
}

// SessionsRepository implements sessions.Repository.
type SessionsRepository struct {
	s *Store
}

func (r *SessionsRepository) GetByUserID(ctx context.Context, userID int64) (*models.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copySession(sess), nil
}

func (r *SessionsRepository) Create(ctx context.Context, userID int64) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return nil, fmt.Errorf("user %d does not exist", userID)
	}
	if _, ok := r.s.sessions[userID]; ok {
		return nil, common.ErrorAlreadyExists
	}

	r.s.nextSess++
	now := r.s.now()
	sess := &models.Session{ID: r.s.nextSess, UserID: userID, CreatedAt: now, UpdatedAt: now}
	r.s.sessions[userID] = sess

	return copySession(sess), nil
}

func (r *SessionsRepository) SetToken(ctx context.Context, userID int64, tokenHash string, expiresAt int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[userID]
	if !ok {
		return common.ErrorNotFound
	}
	sess.RefreshTokenHash = &tokenHash
	sess.RefreshTokenExpiresAt = &expiresAt
	sess.UpdatedAt = r.s.now()
	return nil
}

func (r *SessionsRepository) ClearToken(ctx context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[userID]
	if !ok {
		return common.ErrorNotFound
	}
	sess.RefreshTokenHash = nil
	sess.RefreshTokenExpiresAt = nil
	sess.UpdatedAt = r.s.now()
	return nil
}
