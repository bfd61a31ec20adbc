package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"credential-server/internal/domain"
	"credential-server/internal/repository"
)

type document struct {
	Users []domain.User `json:"users"`
}

// UserRepository holds every user in memory and mirrors the full list to a
// Sink on each write.
type UserRepository struct {
	sink   Sink
	logger *logrus.Entry

	mu    sync.RWMutex
	users []domain.User
}

func NewUserRepository(sink Sink, logger *logrus.Logger) *UserRepository {
	if logger == nil {
		logger = logrus.New()
	}
	return &UserRepository{
		sink:   sink,
		logger: logger.WithField("snapshot", sink.String()),
	}
}

// Init loads the snapshot. A missing or unreadable snapshot leaves the store
// empty; the condition is logged and startup continues.
func (r *UserRepository) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = nil

	data, err := r.sink.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			r.logger.Info("no snapshot found, starting with an empty user list")
		} else {
			r.logger.WithError(err).Warn("load snapshot failed, starting with an empty user list")
		}
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.WithError(err).Warn("malformed snapshot, starting with an empty user list")
		return nil
	}

	r.users = doc.Users
	r.logger.Infof("loaded %d users", len(r.users))
	return nil
}

// Create appends the user and rewrites the snapshot. The in-memory list only
// changes once the snapshot write succeeded.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.indexOf(func(u domain.User) bool { return u.Username == user.Username }); ok {
		return repository.ErrUserAlreadyExists
	}
	if _, ok := r.indexOf(func(u domain.User) bool { return u.ID == user.ID }); ok {
		return fmt.Errorf("duplicate user id %s", user.ID)
	}

	next := make([]domain.User, len(r.users), len(r.users)+1)
	copy(next, r.users)
	next = append(next, *user)

	data, err := json.MarshalIndent(document{Users: next}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.sink.Save(ctx, data); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	r.users = next
	return nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

// Len reports the number of users currently held in memory.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *UserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.indexOf(match)
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	user := r.users[i]
	return &user, nil
}

// indexOf scans in insertion order. Callers hold mu.
func (r *UserRepository) indexOf(match func(domain.User) bool) (int, bool) {
	for i := range r.users {
		if match(r.users[i]) {
			return i, true
		}
	}
	return -1, false
}

var _ repository.UserRepository = (*UserRepository)(nil)
