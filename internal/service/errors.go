package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// 服务层错误全集；底层存储错误一律翻译成这里的某一种，不外泄原始错误
var (
	ErrNotFound               = errors.New("user not found")
	ErrForeignKeyConflict     = errors.New("referenced resource missing or constraint violated")
	ErrInvalidCurrentPassword = errors.New("current password does not match")
	ErrRequestTimeout         = errors.New("storage operation timed out")
	ErrInternal               = errors.New("internal error")
)

// UserExistsError 用户名唯一冲突，携带冲突的用户名
type UserExistsError struct {
	Username string
}

func (e *UserExistsError) Error() string {
	return fmt.Sprintf("user %q already exists", e.Username)
}

type errKind int

const (
	kindInternal errKind = iota
	kindNotFound
	kindDuplicate
	kindForeignKey
	kindTimeout
)

// classify 按错误码/类型把存储层错误归入枚举；认不出的一律 internal
func classify(err error) errKind {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return kindNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return kindTimeout
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return kindDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return kindForeignKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return kindDuplicate
		case "23503", "23502": // foreign_key_violation / not_null_violation
			return kindForeignKey
		case "57014": // query_canceled（statement_timeout）
			return kindTimeout
		}
		return kindInternal
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return kindDuplicate
		case 1451, 1452, 1048, 1364:
			return kindForeignKey
		case 3024:
			return kindTimeout
		}
		return kindInternal
	}

	// 兜底：个别驱动组合不走 TranslateError，按报文猜唯一冲突
	if isDupKey(err) {
		return kindDuplicate
	}
	return kindInternal
}

func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
