package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/user/myratings/internal/telegram"
)

// TokenCookie JWT 所在的 Cookie 名
const TokenCookie = "token"

// Claims JWT 声明，UserID 为 Telegram 用户 ID
type Claims struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Identity 转换为宿主身份
func (c *Claims) Identity() telegram.Identity {
	return telegram.Identity{UserID: c.UserID, FirstName: c.FirstName, Username: c.Username}
}

// RequireAuth 必须登录中间件
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := extractClaims(c, jwtSecret)
		if err != nil {
			// 页面请求跳回首页，由首页走 Telegram 登录
			if strings.Contains(c.GetHeader("Accept"), "text/html") && c.GetHeader("HX-Request") == "" {
				c.Redirect(http.StatusFound, "/")
				c.Abort()
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
			c.Abort()
			return
		}

		setClaims(c, claims, jwtSecret)
		c.Next()
	}
}

// OptionalAuth 可选登录中间件（不强制要求登录）
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := extractClaims(c, jwtSecret); err == nil {
			setClaims(c, claims, jwtSecret)
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *Claims, jwtSecret string) {
	c.Set("user_id", claims.UserID)
	c.Set("identity", claims.Identity())

	// 滑动续期：有效期消耗超过一半时签发新 Token
	if shouldRefresh(claims) {
		expiry := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
		if newToken, err := GenerateToken(claims.Identity(), jwtSecret, expiry); err == nil {
			SetTokenCookie(c, newToken, expiry)
		}
	}
}

// SetTokenCookie 写入 JWT Cookie
// Mini App 运行在 Telegram 的 iframe 中，需要 SameSite=None + Secure
func SetTokenCookie(c *gin.Context, token string, expiry time.Duration) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(TokenCookie, token, int(expiry.Seconds()), "/", "", true, true)
}

// shouldRefresh 已经消耗了总有效期的 50% 以上则刷新
func shouldRefresh(claims *Claims) bool {
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return false
	}
	total := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	return time.Since(claims.IssuedAt.Time) > total/2
}

// extractClaims 从 Cookie 或 Header 中提取 JWT Claims
func extractClaims(c *gin.Context, jwtSecret string) (*Claims, error) {
	var tokenString string

	// 优先从 Cookie 获取
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		tokenString = cookie
	} else {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if tokenString == "" {
		return nil, jwt.ErrTokenMalformed
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// GetUserID 从上下文获取用户 ID（未登录返回空串）
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// GetIdentity 从上下文获取宿主身份
func GetIdentity(c *gin.Context) (telegram.Identity, bool) {
	v, exists := c.Get("identity")
	if !exists {
		return telegram.Identity{}, false
	}
	id, ok := v.(telegram.Identity)
	return id, ok
}

// GenerateToken 生成 JWT Token
func GenerateToken(id telegram.Identity, jwtSecret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    id.UserID,
		FirstName: id.FirstName,
		Username:  id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
