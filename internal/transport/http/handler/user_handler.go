package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-user-admin/internal/core/cache"
	"go-user-admin/internal/pagination"
	"go-user-admin/internal/service"
	resp "go-user-admin/internal/transport/http/response"
)

// UserService 处理器侧声明的服务端口，方便接测试替身
type UserService interface {
	List(ctx context.Context, req pagination.PageRequest) (*pagination.Page[service.UserResponse], error)
	Get(ctx context.Context, id string) (*service.UserResponse, error)
	Create(ctx context.Context, in service.CreateUserInput) (*service.UserResponse, error)
	CreateSimple(ctx context.Context, in service.CreateUserSimpleInput) (*service.UserResponse, error)
	Update(ctx context.Context, id string, in service.UpdateUserInput) (*service.UserResponse, error)
	ChangePassword(ctx context.Context, id string, in service.ChangePasswordInput) (*service.UserResponse, error)
	Block(ctx context.Context, id string) (*service.UserResponse, error)
}

const userKeyPrefix = "users:detail:"

type UserHandler struct {
	svc      UserService
	cache    *cache.Cache // nil 表示未配置 redis，详情直读
	cacheTTL time.Duration
	log      *zap.Logger
}

func NewUserHandler(svc UserService, c *cache.Cache, ttl time.Duration, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, cache: c, cacheTTL: ttl, log: log}
}

// MountAdmin 管理端用户路由
func (h *UserHandler) MountAdmin(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.GET("", h.list)
	users.POST("", h.create)
	users.POST("/simple", h.createSimple)
	users.GET("/:id", h.get)
	users.PATCH("/:id", h.update)
	users.PUT("/:id/password", h.changePassword)
	users.POST("/:id/block", h.block)
}

func (h *UserHandler) list(c *gin.Context) {
	var req pagination.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	page, err := h.svc.List(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(page))
}

func (h *UserHandler) get(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if h.cache == nil {
		u, err := h.svc.Get(ctx, id)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(u))
		return
	}

	u, err := cache.GetOrLoadJSON(h.cache, ctx, userKeyPrefix+id, h.cacheTTL,
		func(ctx context.Context) (*service.UserResponse, error) {
			return h.svc.Get(ctx, id)
		})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(u))
}

func (h *UserHandler) create(c *gin.Context) {
	var in service.CreateUserInput
	if !h.bindJSON(c, &in) {
		return
	}
	u, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp.OK(u))
}

func (h *UserHandler) createSimple(c *gin.Context) {
	var in service.CreateUserSimpleInput
	if !h.bindJSON(c, &in) {
		return
	}
	u, err := h.svc.CreateSimple(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp.OK(u))
}

func (h *UserHandler) update(c *gin.Context) {
	var in service.UpdateUserInput
	if !h.bindJSON(c, &in) {
		return
	}
	id := c.Param("id")
	u, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.invalidate(c.Request.Context(), id)
	c.JSON(http.StatusOK, resp.OK(u))
}

func (h *UserHandler) changePassword(c *gin.Context) {
	var in service.ChangePasswordInput
	if !h.bindJSON(c, &in) {
		return
	}
	id := c.Param("id")
	u, err := h.svc.ChangePassword(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.invalidate(c.Request.Context(), id)
	c.JSON(http.StatusOK, resp.OK(u))
}

func (h *UserHandler) block(c *gin.Context) {
	id := c.Param("id")
	u, err := h.svc.Block(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.invalidate(c.Request.Context(), id)
	c.JSON(http.StatusOK, resp.OK(u))
}

// fail 服务层错误翻到 HTTP 状态的唯一出口；body code 与状态码一致
func (h *UserHandler) fail(c *gin.Context, err error) {
	var ue *service.UserExistsError
	switch {
	case errors.As(err, &ue):
		c.JSON(http.StatusConflict, resp.Error(resp.CodeConflict, ue.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, "user not found"))
	case errors.Is(err, service.ErrForeignKeyConflict):
		c.JSON(http.StatusConflict, resp.Error(resp.CodeConflict, "related resource missing or in use"))
	case errors.Is(err, service.ErrInvalidCurrentPassword):
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "current password does not match"))
	case errors.Is(err, service.ErrRequestTimeout):
		c.JSON(http.StatusRequestTimeout, resp.Error(resp.CodeTimeout, "request timed out"))
	default:
		c.JSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, "internal error"))
	}
}

func (h *UserHandler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, resp.Error(resp.CodePayloadTooLarge, "request body too large"))
			return false
		}
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, err.Error()))
		return false
	}
	return true
}

func (h *UserHandler) invalidate(ctx context.Context, id string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, userKeyPrefix+id); err != nil {
		h.log.Warn("invalidate user cache", zap.String("id", id), zap.Error(err))
	}
}
