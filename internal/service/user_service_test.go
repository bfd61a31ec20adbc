package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"credential-server/internal/auth"
	"credential-server/internal/domain"
	"credential-server/internal/repository"
)

type fakeUsersRepo struct {
	users     []domain.User
	createErr error
	lookupErr error
	creates   int
}

func (f *fakeUsersRepo) Init(context.Context) error { return nil }

func (f *fakeUsersRepo) Create(_ context.Context, u *domain.User) error {
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	f.users = append(f.users, *u)
	return nil
}

func (f *fakeUsersRepo) GetByUsername(_ context.Context, name string) (*domain.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for i := range f.users {
		if f.users[i].Username == name {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for i := range f.users {
		if f.users[i].ID == id {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func newTestService(repo repository.UserRepository) UserService {
	return NewUserService(repo, auth.NewHasher(bcrypt.MinCost))
}

func TestRegister_Success(t *testing.T) {
	repo := &fakeUsersRepo{}
	svc := newTestService(repo)

	user, err := svc.Register(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	parsed, err := uuid.Parse(user.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	require.Len(t, repo.users, 1)
	stored := repo.users[0]
	assert.Equal(t, user.ID, stored.ID)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")))
}

func TestRegister_UniqueIDs(t *testing.T) {
	svc := newTestService(&fakeUsersRepo{})

	seen := map[string]bool{}
	for _, name := range []string{"a", "b", "c", "d"} {
		u, err := svc.Register(context.Background(), name, "pw")
		require.NoError(t, err)
		assert.False(t, seen[u.ID])
		seen[u.ID] = true
	}
}

func TestRegister_Duplicate(t *testing.T) {
	repo := &fakeUsersRepo{}
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), "bob", "pw")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "bob", "pw2")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.Equal(t, 1, repo.creates)
}

func TestRegister_StoreReportsConflict(t *testing.T) {
	repo := &fakeUsersRepo{createErr: repository.ErrUserAlreadyExists}
	_, err := newTestService(repo).Register(context.Background(), "bob", "pw")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name     string
		repo     *fakeUsersRepo
		username string
		password string
		wantIs   error
	}{
		{name: "missing username", repo: &fakeUsersRepo{}, password: "pw", wantIs: ErrMissingCredentials},
		{name: "missing password", repo: &fakeUsersRepo{}, username: "u", wantIs: ErrMissingCredentials},
		{name: "persist failure", repo: &fakeUsersRepo{createErr: errors.New("disk full")}, username: "u", password: "pw"},
		{name: "lookup failure", repo: &fakeUsersRepo{lookupErr: errors.New("db down")}, username: "u", password: "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(tt.repo).Register(context.Background(), tt.username, tt.password)
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			assert.NotErrorIs(t, err, ErrUserAlreadyExists)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	repo := &fakeUsersRepo{}
	svc := newTestService(repo)
	registered, err := svc.Register(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	for _, tc := range [][2]string{{"alice", "wrong"}, {"nobody", "x"}, {"", "secret123"}, {"alice", ""}} {
		_, err := svc.Authenticate(context.Background(), tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidCredentials, "%v", tc)
	}
}

func TestAuthenticate_LookupFailureIsNotCredentialError(t *testing.T) {
	svc := newTestService(&fakeUsersRepo{lookupErr: errors.New("db down")})
	_, err := svc.Authenticate(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetByID(t *testing.T) {
	repo := &fakeUsersRepo{users: []domain.User{{ID: "u-1", Username: "alice", PasswordHash: "h"}}}
	svc := newTestService(repo)

	user, err := svc.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, &domain.User{ID: "u-1", Username: "alice"}, user)

	_, err = svc.GetByID(context.Background(), "u-2")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
