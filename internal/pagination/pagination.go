package pagination

import "math"

const (
	DefaultSize = 20
	MaxSize     = 200
)

// PageRequest 列表查询的分页/排序/过滤参数，零值经 Normalize 后可直接使用
type PageRequest struct {
	Page  int    `form:"page" json:"page"`
	Size  int    `form:"size" json:"size"`
	Sort  string `form:"sort" json:"sort"`
	Query string `form:"query" json:"query"`
}

// Normalize 返回夹紧后的副本：page>=1，size 限制在 [1, MaxSize]
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

func (p PageRequest) Offset() int { return (p.Page - 1) * p.Size }

// Page 统一分页响应载体
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"totalPages"`
}

func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	if items == nil {
		items = []T{} // JSON 里输出 [] 而不是 null
	}
	pages := 0
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(req.Size)))
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		Size:       req.Size,
		TotalPages: pages,
	}
}
