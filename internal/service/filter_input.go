package service

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/user/myratings/internal/model"
)

var (
	ErrUnknownFilterKey   = errors.New("未知的筛选条件")
	ErrInvalidFilterValue = errors.New("筛选值无效")
)

var validate = validator.New()

// ApplyFilterInput 把表单输入应用到筛选条件上，返回新的筛选条件
// 空值或数值 0 会删除该键；非法输入返回错误且不修改原条件
func ApplyFilterInput(f model.Filter, key model.FilterKey, raw string) (model.Filter, error) {
	if raw == "" {
		if !slices.Contains(model.FilterKeys, key) {
			return f, fmt.Errorf("%w: %q", ErrUnknownFilterKey, key)
		}
		return f.Without(key), nil
	}

	out := f.Clone()
	switch key {
	case model.FilterType:
		if err := validate.Var(raw, "oneof=movie series"); err != nil {
			return f, fmt.Errorf("%w: type=%q", ErrInvalidFilterValue, raw)
		}
		t := model.RatingType(raw)
		out.Type = &t
	case model.FilterMinRating:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, fmt.Errorf("%w: minRating=%q", ErrInvalidFilterValue, raw)
		}
		if n == 0 {
			return f.Without(key), nil
		}
		if err := validate.Var(n, "min=1,max=10"); err != nil {
			return f, fmt.Errorf("%w: minRating=%d", ErrInvalidFilterValue, n)
		}
		out.MinRating = &n
	case model.FilterYear:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, fmt.Errorf("%w: year=%q", ErrInvalidFilterValue, raw)
		}
		if n == 0 {
			return f.Without(key), nil
		}
		out.Year = &n
	case model.FilterGenre:
		out.Genre = &raw
	default:
		return f, fmt.Errorf("%w: %q", ErrUnknownFilterKey, key)
	}
	return out, nil
}

