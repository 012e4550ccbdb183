package service

import (
	"go-user-admin/internal/domain"
	"go-user-admin/pkg/utils"
)

// DTO ⇄ 实体的纯转换，不做任何 IO

func newUserFromCreate(in CreateUserInput) *domain.User {
	u := &domain.User{
		ID:       utils.NewID(),
		Username: in.Username,
		Name:     in.Name,
		Status:   domain.StatusActive,
	}
	for _, id := range in.RoleIDs {
		u.Roles = append(u.Roles, domain.Role{ID: id})
	}
	for _, id := range in.PermissionIDs {
		u.Permissions = append(u.Permissions, domain.Permission{ID: id})
	}
	return u
}

func newUserFromCreateSimple(in CreateUserSimpleInput) *domain.User {
	return &domain.User{
		ID:       utils.NewID(),
		Username: in.Username,
		Name:     in.Name,
		Status:   domain.StatusActive,
	}
}

// mergeUpdate 只覆盖非 nil 字段
func mergeUpdate(u *domain.User, in UpdateUserInput) {
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Status != nil {
		u.Status = *in.Status
	}
}

func toResponse(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Status:      u.Status,
		Roles:       roleRefs(u.Roles),
		Permissions: permRefs(u.Permissions),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func roleRefs(rs []domain.Role) []Ref {
	out := make([]Ref, 0, len(rs))
	for _, r := range rs {
		out = append(out, Ref{ID: r.ID, Name: r.Name})
	}
	return out
}

func permRefs(ps []domain.Permission) []Ref {
	out := make([]Ref, 0, len(ps))
	for _, p := range ps {
		out = append(out, Ref{ID: p.ID, Name: p.Name})
	}
	return out
}
