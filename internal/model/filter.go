package model

import (
	"encoding/json"
	"strconv"
)

// FilterKey 筛选条件键，与 API 的 filter JSON 字段名一致
type FilterKey string

const (
	FilterType      FilterKey = "type"
	FilterMinRating FilterKey = "minRating"
	FilterYear      FilterKey = "year"
	FilterGenre     FilterKey = "genre"
)

// FilterKeys 全部可用的筛选键
var FilterKeys = []FilterKey{FilterType, FilterMinRating, FilterYear, FilterGenre}

// Filter 评分筛选条件
// nil 字段表示不限制，序列化时不会出现该键
type Filter struct {
	Type      *RatingType `json:"type,omitempty"`
	MinRating *int        `json:"minRating,omitempty"`
	Year      *int        `json:"year,omitempty"`
	Genre     *string     `json:"genre,omitempty"`
}

// IsEmpty 是否没有任何条件
func (f Filter) IsEmpty() bool {
	return f.Type == nil && f.MinRating == nil && f.Year == nil && f.Genre == nil
}

// Clone 深拷贝，避免请求参数与视图状态共享指针
func (f Filter) Clone() Filter {
	var out Filter
	if f.Type != nil {
		t := *f.Type
		out.Type = &t
	}
	if f.MinRating != nil {
		n := *f.MinRating
		out.MinRating = &n
	}
	if f.Year != nil {
		n := *f.Year
		out.Year = &n
	}
	if f.Genre != nil {
		s := *f.Genre
		out.Genre = &s
	}
	return out
}

// Without 返回删除指定键后的副本
func (f Filter) Without(key FilterKey) Filter {
	out := f.Clone()
	switch key {
	case FilterType:
		out.Type = nil
	case FilterMinRating:
		out.MinRating = nil
	case FilterYear:
		out.Year = nil
	case FilterGenre:
		out.Genre = nil
	}
	return out
}

// JSON 序列化为查询参数使用的 JSON 文本，空条件为 "{}"
func (f Filter) JSON() string {
	b, err := json.Marshal(f)
	if err != nil {
		// 字段均为基础类型，不会失败
		return "{}"
	}
	return string(b)
}

// Value 返回某个键当前的表单值（用于回填输入框），未设置时为空串
func (f Filter) Value(key FilterKey) string {
	switch key {
	case FilterType:
		if f.Type != nil {
			return string(*f.Type)
		}
	case FilterMinRating:
		if f.MinRating != nil {
			return strconv.Itoa(*f.MinRating)
		}
	case FilterYear:
		if f.Year != nil {
			return strconv.Itoa(*f.Year)
		}
	case FilterGenre:
		if f.Genre != nil {
			return *f.Genre
		}
	}
	return ""
}

