package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// TTLCache 带过期时间的 LRU 缓存
type TTLCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
	now     func() time.Time
}

// NewTTLCache 初始化，size 是最大缓存条数，ttl 是数据有效期
func NewTTLCache[T any](size int, ttl time.Duration) *TTLCache[T] {
	// lru.New 是线程安全的，size <= 0 时才会报错
	if size <= 0 {
		size = 1
	}
	c, _ := lru.New[string, CacheItem[T]](size)
	return &TTLCache[T]{
		storage: c,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get 读取，过期项会被删除
func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}
	return item.Value, true
}

// GetOrSet 读取，不存在时用 create 创建并写入
func (c *TTLCache[T]) GetOrSet(key string, create func() T) T {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := create()
	item := CacheItem[T]{Value: v, ExpiredAt: c.now().Add(c.ttl)}
	// 并发创建时保留先写入且未过期的值
	prev, found, _ := c.storage.PeekOrAdd(key, item)
	if found {
		if c.now().Before(prev.ExpiredAt) {
			return prev.Value
		}
		c.storage.Add(key, item)
	}
	return v
}
