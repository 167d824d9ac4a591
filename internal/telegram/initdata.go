package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

var (
	ErrMissingHash = errors.New("initData 缺少 hash")
	ErrInvalidHash = errors.New("initData 签名无效")
	ErrExpired     = errors.New("initData 已过期")
	ErrMalformed   = errors.New("initData 格式错误")
	ErrNoUser      = errors.New("initData 不包含用户信息")
)

// ParseInitData 校验 Telegram WebApp initData 并提取用户身份
// maxAge 为 0 时不检查 auth_date
func ParseInitData(raw, botToken string, maxAge time.Duration) (Identity, error) {
	if err := initdata.Validate(raw, botToken, maxAge); err != nil {
		return Identity{}, classify(err)
	}

	data, err := initdata.Parse(raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if data.User.ID == 0 {
		return Identity{}, ErrNoUser
	}

	return Identity{
		UserID:    strconv.FormatInt(data.User.ID, 10),
		FirstName: data.User.FirstName,
		Username:  data.User.Username,
	}, nil
}

// classify 将校验错误归入本包的错误类型，保留原始错误
func classify(err error) error {
	switch {
	case errors.Is(err, initdata.ErrSignMissing):
		return fmt.Errorf("%w: %w", ErrMissingHash, err)
	case errors.Is(err, initdata.ErrSignInvalid):
		return fmt.Errorf("%w: %w", ErrInvalidHash, err)
	case errors.Is(err, initdata.ErrExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
