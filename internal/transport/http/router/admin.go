package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-user-admin/internal/core/auth"
	"go-user-admin/internal/transport/http/handler"
	mdw "go-user-admin/internal/transport/http/middleware"
)

// NewAdminEngine 管理端引擎：通用中间件链 + /admin/v1 鉴权分组
func NewAdminEngine(l *zap.Logger, h *handler.UserHandler, jwter *auth.JWTer, reqTimeout time.Duration) *gin.Engine {
	if reqTimeout <= 0 {
		reqTimeout = 10 * time.Second
	}
	r := gin.New()
	// c 本身当 context 用时透传请求的超时/取消（信号量等待依赖这个）
	r.ContextWithFallback = true

	r.Use(
		mdw.RequestID(),
		corsMiddleware(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(reqTimeout),
		ginzap.RecoveryWithZap(l, true),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	// 健康检查 + 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter, "admin"))
	h.MountAdmin(admin)

	return r
}

func corsMiddleware() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", mdw.HeaderRequestID)
	return cors.New(cfg)
}
