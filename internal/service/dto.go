package service

import (
	"time"

	"go-user-admin/internal/domain"
)

// Ref 角色/权限在响应里的引用形态
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateUserInput struct {
	Username      string   `json:"username" binding:"required,min=3,max=64"`
	Password      string   `json:"password" binding:"required,min=8,max=72"`
	Name          string   `json:"name" binding:"required,max=64"`
	RoleIDs       []string `json:"roleIds" binding:"omitempty,dive,len=32"`
	PermissionIDs []string `json:"permissionIds" binding:"omitempty,dive,len=32"`
}

// CreateUserSimpleInput 精简建档：不带任何关联字段
type CreateUserSimpleInput struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,max=64"`
}

// UpdateUserInput 局部更新：nil 字段不动
type UpdateUserInput struct {
	Username *string        `json:"username" binding:"omitempty,min=3,max=64"`
	Name     *string        `json:"name" binding:"omitempty,max=64"`
	Status   *domain.Status `json:"status" binding:"omitempty,oneof=active inactive blocked"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

// UserResponse 对外响应形态；凭据字段不存在于该结构
type UserResponse struct {
	ID          string        `json:"id"`
	Username    string        `json:"username"`
	Name        string        `json:"name"`
	Status      domain.Status `json:"status"`
	Roles       []Ref         `json:"roles"`
	Permissions []Ref         `json:"permissions"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
