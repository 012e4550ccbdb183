package service

import (
	"context"

	"go.uber.org/zap"

	"go-user-admin/internal/domain"
	"go-user-admin/internal/pagination"
)

// PasswordHasher 凭据哈希能力接口；比较必须是恒定时间的，实现可整体替换
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, hashed string) bool
}

// UserService 用户生命周期编排：六个操作 + 错误归一。无跨请求内存状态，
// 并发安全完全依赖存储层的唯一/外键约束。
type UserService struct {
	repo   domain.UserRepository
	hasher PasswordHasher
	log    *zap.Logger
}

func NewUserService(repo domain.UserRepository, hasher PasswordHasher, log *zap.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, log: log}
}

// List 分页拉取；空页直接返回 ErrNotFound，不进通用翻译
func (s *UserService) List(ctx context.Context, req pagination.PageRequest) (*pagination.Page[UserResponse], error) {
	req = req.Normalize()
	users, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, s.wrapRead(err)
	}
	if total == 0 || len(users) == 0 {
		return nil, ErrNotFound
	}
	items := make([]UserResponse, len(users))
	for i := range users {
		items[i] = *toResponse(&users[i])
	}
	page := pagination.NewPage(items, total, req)
	return &page, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*UserResponse, error) {
	u, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(u), nil
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*UserResponse, error) {
	return s.createUser(ctx, newUserFromCreate(in), in.Password)
}

func (s *UserService) CreateSimple(ctx context.Context, in CreateUserSimpleInput) (*UserResponse, error) {
	return s.createUser(ctx, newUserFromCreateSimple(in), in.Password)
}

// createUser 两个建档变体的公共路径：查重、哈希、落库、回读；错误归一完全一致
func (s *UserService) createUser(ctx context.Context, u *domain.User, plain string) (*UserResponse, error) {
	existing, err := s.repo.FindByUsername(ctx, u.Username)
	if err != nil {
		return nil, s.wrapRead(err)
	}
	if existing != nil {
		return nil, &UserExistsError{Username: u.Username}
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		s.log.Error("hash password failed", zap.Error(err))
		return nil, ErrInternal
	}
	u.PasswordHash = hash

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, s.wrapWrite(err, u.Username)
	}

	// 回读补全关联字典行（建档只带了 ID）
	created, err := s.repo.FindByID(ctx, u.ID)
	if err != nil || created == nil {
		return toResponse(u), nil
	}
	return toResponse(created), nil
}

func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*UserResponse, error) {
	u, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	mergeUpdate(u, in)
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, s.wrapWrite(err, u.Username)
	}
	return toResponse(u), nil
}

func (s *UserService) ChangePassword(ctx context.Context, id string, in ChangePasswordInput) (*UserResponse, error) {
	u, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	// 先验旧口令；不通过就不碰存储，比较本身不做错误翻译
	if !s.hasher.Compare(in.CurrentPassword, u.PasswordHash) {
		return nil, ErrInvalidCurrentPassword
	}
	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		s.log.Error("hash password failed", zap.Error(err))
		return nil, ErrInternal
	}
	u.PasswordHash = hash
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, s.wrapWrite(err, u.Username)
	}
	return toResponse(u), nil
}

func (s *UserService) Block(ctx context.Context, id string) (*UserResponse, error) {
	u, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Status = domain.StatusBlocked
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, s.wrapWrite(err, u.Username)
	}
	return toResponse(u), nil
}

// fetch 单条读取的统一入口：未命中 → ErrNotFound，其余走读路径翻译
func (s *UserService) fetch(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.wrapRead(err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *UserService) wrapRead(err error) error {
	switch classify(err) {
	case kindNotFound:
		return ErrNotFound
	case kindTimeout:
		return ErrRequestTimeout
	default:
		s.log.Error("user read failed", zap.Error(err))
		return ErrInternal
	}
}

// wrapWrite 写路径翻译；唯一冲突带上当事用户名
func (s *UserService) wrapWrite(err error, username string) error {
	switch classify(err) {
	case kindDuplicate:
		return &UserExistsError{Username: username}
	case kindForeignKey:
		return ErrForeignKeyConflict
	case kindTimeout:
		return ErrRequestTimeout
	default:
		s.log.Error("user write failed", zap.Error(err))
		return ErrInternal
	}
}
