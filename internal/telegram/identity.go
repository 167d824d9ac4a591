// Package telegram 负责从 Telegram Mini App 宿主环境解析用户身份。
package telegram

import (
	"context"
	"time"
)

// Identity 宿主环境提供的用户身份
type Identity struct {
	UserID    string
	FirstName string
	Username  string
}

// IdentityProvider 启动时解析一次用户身份
// 返回 false 表示宿主环境或用户信息不可用
type IdentityProvider interface {
	Resolve(ctx context.Context) (Identity, bool)
}

// StaticIdentity 身份已知（例如来自已校验的 JWT）
type StaticIdentity Identity

// Resolve 实现 IdentityProvider
func (s StaticIdentity) Resolve(context.Context) (Identity, bool) {
	return Identity(s), s.UserID != ""
}

// NoIdentity 宿主环境不存在，视图将一直停留在加载状态
type NoIdentity struct{}

// Resolve 实现 IdentityProvider
func (NoIdentity) Resolve(context.Context) (Identity, bool) {
	return Identity{}, false
}

// InitDataProvider 通过校验 Mini App 提交的 initData 解析身份
type InitDataProvider struct {
	InitData string
	BotToken string
	MaxAge   time.Duration
	// OnError 校验失败时回调，可为空
	OnError func(error)
}

// Resolve 实现 IdentityProvider，校验失败视为宿主不可用
func (p InitDataProvider) Resolve(context.Context) (Identity, bool) {
	if p.InitData == "" {
		return Identity{}, false
	}
	id, err := ParseInitData(p.InitData, p.BotToken, p.MaxAge)
	if err != nil {
		if p.OnError != nil {
			p.OnError(err)
		}
		return Identity{}, false
	}
	return id, true
}
