package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/myratings/internal/utils"
	"golang.org/x/time/rate"
)

// RateLimit 按用户（未登录按 IP）限流，超限返回 429
// 限流器保存在有上限的 LRU 中，长时间不活跃的用户会被淘汰
func RateLimit(limit float64, burst int) gin.HandlerFunc {
	limiters := utils.NewTTLCache[*rate.Limiter](10000, 10*time.Minute)

	return func(c *gin.Context) {
		key := GetUserID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		l := limiters.GetOrSet(key, func() *rate.Limiter {
			return rate.NewLimiter(rate.Limit(limit), burst)
		})
		if !l.Allow() {
			utils.TooManyRequests(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
