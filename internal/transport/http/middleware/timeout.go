package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	resp "go-user-admin/internal/transport/http/response"
)

// Timeout 给请求挂截止时间；存储层带着这个 ctx 跑，超时反应式地冒回服务层。
// 处理器没来得及写响应时这里兜底回 408。
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusRequestTimeout, resp.Error(resp.CodeTimeout, "request timed out"))
		}
	}
}
