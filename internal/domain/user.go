package domain

import (
	"context"
	"time"

	"go-user-admin/internal/pagination"
)

// Status 用户状态；本核心只定义 active → blocked 一条迁移
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBlocked  Status = "blocked"
)

type User struct {
	ID           string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Username     string `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Name         string `gorm:"size:64;not null" json:"name"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	Status       Status `gorm:"size:16;not null;default:active" json:"status"`

	// 多对多关系，建档后本核心只读
	Roles       []Role       `gorm:"many2many:user_roles" json:"roles"`
	Permissions []Permission `gorm:"many2many:user_permissions" json:"permissions"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

type Role struct {
	ID          string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Name        string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description string `gorm:"size:255" json:"description,omitempty"`
}

func (Role) TableName() string { return "roles" }

type Permission struct {
	ID          string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Name        string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description string `gorm:"size:255" json:"description,omitempty"`
}

func (Permission) TableName() string { return "permissions" }

// UserRepository 持久层端口。约定：单条查询未命中返回 (nil, nil) 而不是错误。
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, req pagination.PageRequest) ([]User, int64, error)
	Save(ctx context.Context, u *User) error
}
