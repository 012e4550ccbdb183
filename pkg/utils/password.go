package utils

import "golang.org/x/crypto/bcrypt"

// Bcrypt 口令哈希器：单向哈希 + 恒定时间比较
type Bcrypt struct {
	Cost int // 0 表示 bcrypt.DefaultCost
}

func (b Bcrypt) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Compare bcrypt 内部已是恒定时间比较；任何失败一律按不匹配处理
func (b Bcrypt) Compare(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
