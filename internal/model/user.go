package model

// SessionUser 存入 Session 的 Telegram 用户信息
type SessionUser struct {
	ID        string
	FirstName string
	Username  string
}

// DisplayName 页面展示用名称
func (u SessionUser) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.ID
}
