package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID 生成 32 位十六进制主键（uuid 去横线），适配 varchar(32) 列
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
