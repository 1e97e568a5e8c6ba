package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/frotadesk/frotadesk/internal/authz"
)

type memoryUserRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]User)}
}

func (r *memoryUserRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryUserRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) FindByUsername(ctx context.Context, username string) (User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryUserRepo) Create(ctx context.Context, user User) (int64, error) {
	if _, err := r.FindByUsername(ctx, user.Username); err == nil {
		return 0, ErrDuplicateUsername
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user.ID, nil
}

func (r *memoryUserRepo) Update(ctx context.Context, user User) error {
	existing, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	if user.PasswordHash == "" {
		user.PasswordHash = existing.PasswordHash
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Create(ctx, "maria", "secret", "buyer")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.Equal(t, authz.RoleBuyer, user.Role)

	stored, err := repo.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotEqual(t, "secret", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret")))
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newMemoryUserRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, "", "secret", "buyer")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, "joao", "ab", "buyer")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, "joao", "secret", "superuser")
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateUserDuplicate(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, "ana", "secret", "manager")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "ana", "other", "buyer")
	require.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestUpdateKeepsPasswordWhenBlank(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Create(ctx, "carla", "secret", "standard")
	require.NoError(t, err)
	before, _ := repo.Get(ctx, user.ID)

	require.NoError(t, svc.Update(ctx, user.ID, "carla", "manager", ""))
	after, _ := repo.Get(ctx, user.ID)
	require.Equal(t, before.PasswordHash, after.PasswordHash)
	require.Equal(t, authz.RoleManager, after.Role)
}

func TestDeleteSelfForbidden(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Create(ctx, "pedro", "secret", "admin")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, user.ID, user.ID), ErrSelfDelete)
	require.NoError(t, svc.Delete(ctx, user.ID, user.ID+1))
	require.ErrorIs(t, svc.Delete(ctx, user.ID, user.ID+1), ErrNotFound)
}
