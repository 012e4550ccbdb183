package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"go-user-admin/internal/domain"
	"go-user-admin/internal/pagination"
	"go-user-admin/pkg/utils"
)

// memRepo 内存版 UserRepository；err 字段非空时直接返回该错误
type memRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	createErr error
	findErr   error
	listErr   error
	saveErr   error
	listOut   []domain.User
	listTotal int64
	saveCalls int
}

func newMemRepo() *memRepo { return &memRepo{users: map[string]*domain.User{}} }

func (m *memRepo) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, ex := range m.users {
		if ex.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRepo) List(_ context.Context, _ pagination.PageRequest) ([]domain.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listOut, m.listTotal, nil
}

func (m *memRepo) Save(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saveCalls++
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) stored(id string) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("hash boom") }
func (failingHasher) Compare(string, string) bool { return false }

func newTestService(repo domain.UserRepository) *UserService {
	return NewUserService(repo, utils.Bcrypt{Cost: bcrypt.MinCost}, zap.NewNop())
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh username succeeds, no credential in response", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		resp, err := svc.Create(ctx, CreateUserInput{Username: "alice", Password: "p@ss1-secret", Name: "Alice"})
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.Username)
		assert.Equal(t, domain.StatusActive, resp.Status)
		assert.Len(t, resp.ID, 32)

		raw, err := json.Marshal(resp)
		require.NoError(t, err)
		low := strings.ToLower(string(raw))
		assert.NotContains(t, low, "password")
		assert.NotContains(t, low, "p@ss1-secret")

		stored := repo.stored(resp.ID)
		require.NotNil(t, stored)
		assert.NotEqual(t, "p@ss1-secret", stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("p@ss1-secret")))
	})

	t.Run("full variant binds role and permission refs", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		resp, err := svc.Create(ctx, CreateUserInput{
			Username: "bob", Password: "p@ss1-secret", Name: "Bob",
			RoleIDs:       []string{"r-admin"},
			PermissionIDs: []string{"p-read", "p-write"},
		})
		require.NoError(t, err)
		require.Len(t, resp.Roles, 1)
		assert.Equal(t, "r-admin", resp.Roles[0].ID)
		require.Len(t, resp.Permissions, 2)

		stored := repo.stored(resp.ID)
		require.NotNil(t, stored)
		assert.Len(t, stored.Roles, 1)
	})

	t.Run("duplicate username from either variant", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)

		_, err := svc.Create(ctx, CreateUserInput{Username: "alice", Password: "p@ss1-secret", Name: "Alice"})
		require.NoError(t, err)

		_, err = svc.Create(ctx, CreateUserInput{Username: "alice", Password: "other-secret", Name: "Imposter"})
		var ue *UserExistsError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "alice", ue.Username)

		_, err = svc.CreateSimple(ctx, CreateUserSimpleInput{Username: "alice", Password: "other-secret", Name: "Imposter"})
		ue = nil
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "alice", ue.Username)
	})

	t.Run("constraint race loser still maps to user exists", func(t *testing.T) {
		repo := newMemRepo()
		repo.createErr = gorm.ErrDuplicatedKey // 预检查没拦住，落库才撞唯一键
		svc := newTestService(repo)

		_, err := svc.Create(ctx, CreateUserInput{Username: "carol", Password: "p@ss1-secret", Name: "Carol"})
		var ue *UserExistsError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "carol", ue.Username)
	})

	t.Run("dangling relation id maps to foreign key conflict", func(t *testing.T) {
		repo := newMemRepo()
		repo.createErr = gorm.ErrForeignKeyViolated
		svc := newTestService(repo)

		_, err := svc.Create(ctx, CreateUserInput{
			Username: "dave", Password: "p@ss1-secret", Name: "Dave",
			RoleIDs: []string{"no-such-role"},
		})
		assert.ErrorIs(t, err, ErrForeignKeyConflict)
	})

	t.Run("storage timeout maps to request timeout", func(t *testing.T) {
		repo := newMemRepo()
		repo.createErr = context.DeadlineExceeded
		svc := newTestService(repo)

		_, err := svc.CreateSimple(ctx, CreateUserSimpleInput{Username: "erin", Password: "p@ss1-secret", Name: "Erin"})
		assert.ErrorIs(t, err, ErrRequestTimeout)
	})

	t.Run("hash failure is internal and never persists", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewUserService(repo, failingHasher{}, zap.NewNop())

		_, err := svc.CreateSimple(ctx, CreateUserSimpleInput{Username: "frank", Password: "p@ss1-secret", Name: "Frank"})
		assert.ErrorIs(t, err, ErrInternal)
		assert.Empty(t, repo.users)
	})
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()

	t.Run("returns dto with relations", func(t *testing.T) {
		repo := newMemRepo()
		repo.users["u1"] = &domain.User{
			ID: "u1", Username: "alice", Name: "Alice", Status: domain.StatusActive,
			Roles: []domain.Role{{ID: "r1", Name: "admin"}},
		}
		svc := newTestService(repo)

		resp, err := svc.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.Username)
		require.Len(t, resp.Roles, 1)
		assert.Equal(t, "admin", resp.Roles[0].Name)
	})

	t.Run("absent id", func(t *testing.T) {
		svc := newTestService(newMemRepo())
		_, err := svc.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("fetch timeout", func(t *testing.T) {
		repo := newMemRepo()
		repo.findErr = context.DeadlineExceeded
		svc := newTestService(repo)
		_, err := svc.Get(ctx, "u1")
		assert.ErrorIs(t, err, ErrRequestTimeout)
	})

	t.Run("unknown fetch error stays internal", func(t *testing.T) {
		repo := newMemRepo()
		repo.findErr = assert.AnError
		svc := newTestService(repo)
		_, err := svc.Get(ctx, "u1")
		assert.ErrorIs(t, err, ErrInternal)
	})
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("empty result is not found, never an empty page", func(t *testing.T) {
		svc := newTestService(newMemRepo())
		_, err := svc.List(ctx, pagination.PageRequest{Page: 1, Size: 20})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("maps page preserving fetch order", func(t *testing.T) {
		repo := newMemRepo()
		repo.listOut = []domain.User{
			{ID: "u2", Username: "bob", Status: domain.StatusActive},
			{ID: "u1", Username: "alice", Status: domain.StatusActive},
		}
		repo.listTotal = 41
		svc := newTestService(repo)

		page, err := svc.List(ctx, pagination.PageRequest{Page: 2, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(41), page.Total)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 21, page.TotalPages)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "bob", page.Items[0].Username)
		assert.Equal(t, "alice", page.Items[1].Username)
	})

	t.Run("timeout and internal translation", func(t *testing.T) {
		repo := newMemRepo()
		repo.listErr = context.DeadlineExceeded
		svc := newTestService(repo)
		_, err := svc.List(ctx, pagination.PageRequest{})
		assert.ErrorIs(t, err, ErrRequestTimeout)

		repo.listErr = assert.AnError
		_, err = svc.List(ctx, pagination.PageRequest{})
		assert.ErrorIs(t, err, ErrInternal)
	})
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	seed := func(repo *memRepo) {
		repo.users["u1"] = &domain.User{
			ID: "u1", Username: "alice", Name: "Alice", Status: domain.StatusActive,
			PasswordHash: "$2a$04$staticstatichash",
		}
	}

	t.Run("partial merge keeps absent fields", func(t *testing.T) {
		repo := newMemRepo()
		seed(repo)
		svc := newTestService(repo)

		name := "Alice Liddell"
		resp, err := svc.Update(ctx, "u1", UpdateUserInput{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.Username)
		assert.Equal(t, "Alice Liddell", resp.Name)
		assert.Equal(t, domain.StatusActive, resp.Status)

		stored := repo.stored("u1")
		assert.Equal(t, "alice", stored.Username)
		assert.Equal(t, "Alice Liddell", stored.Name)
		assert.Equal(t, "$2a$04$staticstatichash", stored.PasswordHash)
	})

	t.Run("empty patch is a no-op returning prior state", func(t *testing.T) {
		repo := newMemRepo()
		seed(repo)
		svc := newTestService(repo)

		resp, err := svc.Update(ctx, "u1", UpdateUserInput{})
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.Username)
		assert.Equal(t, "Alice", resp.Name)
		assert.Equal(t, domain.StatusActive, resp.Status)
	})

	t.Run("absent id", func(t *testing.T) {
		svc := newTestService(newMemRepo())
		_, err := svc.Update(ctx, "nope", UpdateUserInput{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("username change collision carries the new username", func(t *testing.T) {
		repo := newMemRepo()
		seed(repo)
		repo.saveErr = gorm.ErrDuplicatedKey
		svc := newTestService(repo)

		taken := "bob"
		_, err := svc.Update(ctx, "u1", UpdateUserInput{Username: &taken})
		var ue *UserExistsError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "bob", ue.Username)
	})

	t.Run("save timeout", func(t *testing.T) {
		repo := newMemRepo()
		seed(repo)
		repo.saveErr = context.DeadlineExceeded
		svc := newTestService(repo)

		_, err := svc.Update(ctx, "u1", UpdateUserInput{})
		assert.ErrorIs(t, err, ErrRequestTimeout)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	hasher := utils.Bcrypt{Cost: bcrypt.MinCost}

	seed := func(t *testing.T, repo *memRepo) {
		t.Helper()
		hash, err := hasher.Hash("old-secret-1")
		require.NoError(t, err)
		repo.users["u1"] = &domain.User{ID: "u1", Username: "alice", PasswordHash: hash, Status: domain.StatusActive}
	}

	t.Run("wrong current password never touches storage", func(t *testing.T) {
		repo := newMemRepo()
		seed(t, repo)
		svc := newTestService(repo)

		_, err := svc.ChangePassword(ctx, "u1", ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "new-secret-1"})
		assert.ErrorIs(t, err, ErrInvalidCurrentPassword)
		assert.Zero(t, repo.saveCalls)
		assert.True(t, hasher.Compare("old-secret-1", repo.stored("u1").PasswordHash))
	})

	t.Run("correct current password swaps the hash", func(t *testing.T) {
		repo := newMemRepo()
		seed(t, repo)
		svc := newTestService(repo)

		resp, err := svc.ChangePassword(ctx, "u1", ChangePasswordInput{CurrentPassword: "old-secret-1", NewPassword: "new-secret-1"})
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.Username)

		stored := repo.stored("u1")
		assert.False(t, hasher.Compare("old-secret-1", stored.PasswordHash))
		assert.True(t, hasher.Compare("new-secret-1", stored.PasswordHash))
	})

	t.Run("absent id", func(t *testing.T) {
		svc := newTestService(newMemRepo())
		_, err := svc.ChangePassword(ctx, "nope", ChangePasswordInput{CurrentPassword: "x", NewPassword: "y"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("persist timeout after successful verify", func(t *testing.T) {
		repo := newMemRepo()
		seed(t, repo)
		repo.saveErr = context.DeadlineExceeded
		svc := newTestService(repo)

		_, err := svc.ChangePassword(ctx, "u1", ChangePasswordInput{CurrentPassword: "old-secret-1", NewPassword: "new-secret-1"})
		assert.ErrorIs(t, err, ErrRequestTimeout)
	})
}

func TestBlockUser(t *testing.T) {
	ctx := context.Background()

	t.Run("sets blocked status", func(t *testing.T) {
		repo := newMemRepo()
		repo.users["u2"] = &domain.User{ID: "u2", Username: "bob", Status: domain.StatusActive}
		svc := newTestService(repo)

		resp, err := svc.Block(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusBlocked, resp.Status)
		assert.Equal(t, domain.StatusBlocked, repo.stored("u2").Status)
	})

	t.Run("absent id is guarded", func(t *testing.T) {
		svc := newTestService(newMemRepo())
		_, err := svc.Block(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save timeout", func(t *testing.T) {
		repo := newMemRepo()
		repo.users["u2"] = &domain.User{ID: "u2", Username: "bob", Status: domain.StatusActive}
		repo.saveErr = context.DeadlineExceeded
		svc := newTestService(repo)

		_, err := svc.Block(ctx, "u2")
		assert.ErrorIs(t, err, ErrRequestTimeout)
	})
}
