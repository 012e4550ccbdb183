package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-user-admin/internal/domain"
	"go-user-admin/internal/pagination"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

// Create 用户连同关联行一起落库。Omit 跳过 Role/Permission 字典行的回写，
// 只插 user_roles/user_permissions 关联行，悬空引用交给外键约束暴露。
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).
		Omit("Roles.*", "Permissions.*").
		Create(u).Error
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Preload("Roles").Preload("Permissions").
		First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) List(ctx context.Context, req pagination.PageRequest) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.User{})
	if q := strings.TrimSpace(req.Query); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("username LIKE ? OR name LIKE ?", like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	err := tx.Preload("Roles").Preload("Permissions").
		Order(orderClause(req.Sort)).
		Offset(req.Offset()).Limit(req.Size).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Save 整条回写标量列；关联建档后只读，跳过避免误写字典/关联表
func (r *UserRepo) Save(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(u).Error
}

// 排序白名单，未知值回落默认
var sortColumns = map[string]string{
	"":            "created_at DESC",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"username":    "username ASC",
	"-username":   "username DESC",
}

func orderClause(sort string) string {
	if col, ok := sortColumns[sort]; ok {
		return col
	}
	return "created_at DESC"
}
