package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/user/myratings/internal/service"
	"github.com/user/myratings/internal/telegram"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ViewStore 按用户保存评分视图，访问时续期
type ViewStore struct {
	views   *cache.Cache
	ttl     time.Duration
	fetcher service.RatingsFetcher
	logger  *zap.Logger
	sf      singleflight.Group // 防止同一用户并发创建多个视图
}

// NewViewStore 创建视图仓库
// 不启用 go-cache 自带的清理协程，过期清理由 CleanupService 负责
func NewViewStore(fetcher service.RatingsFetcher, ttl time.Duration, logger *zap.Logger) *ViewStore {
	c := cache.New(ttl, 0)
	c.OnEvicted(func(userID string, v interface{}) {
		if view, ok := v.(*service.RatingsView); ok {
			view.Close()
		}
	})
	return &ViewStore{
		views:   c,
		ttl:     ttl,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Get 获取已有视图并续期
func (s *ViewStore) Get(userID string) (*service.RatingsView, bool) {
	v, ok := s.views.Get(userID)
	if !ok {
		return nil, false
	}
	view := v.(*service.RatingsView)
	s.views.Set(userID, view, s.ttl)
	return view, true
}

// GetOrStart 获取用户视图，不存在时创建并执行启动流程（首次拉取）
func (s *ViewStore) GetOrStart(ctx context.Context, id telegram.Identity) *service.RatingsView {
	if view, ok := s.Get(id.UserID); ok {
		return view
	}

	v, _, _ := s.sf.Do(id.UserID, func() (interface{}, error) {
		if view, ok := s.Get(id.UserID); ok {
			return view, nil
		}
		// 已过期但尚未清理的旧视图，删除时触发 OnEvicted 关闭订阅
		s.views.Delete(id.UserID)

		view := service.NewRatingsView(s.fetcher, s.logger.With(zap.String("user_id", id.UserID)))
		view.Start(ctx, telegram.StaticIdentity(id))
		s.views.Set(id.UserID, view, s.ttl)
		s.logger.Info("创建评分视图", zap.String("user_id", id.UserID))
		return view, nil
	})
	return v.(*service.RatingsView)
}

// Restart 整页加载时调用，已有视图重置为初始状态并重新拉取
func (s *ViewStore) Restart(ctx context.Context, id telegram.Identity) *service.RatingsView {
	if view, ok := s.Get(id.UserID); ok && view.Reset(ctx) {
		return view
	}
	return s.GetOrStart(ctx, id)
}

// DeleteExpired 清理过期视图，返回剩余数量
func (s *ViewStore) DeleteExpired() int {
	s.views.DeleteExpired()
	return s.views.ItemCount()
}

// Len 当前视图数量（含未清理的过期项）
func (s *ViewStore) Len() int {
	return s.views.ItemCount()
}

// Flush 清空全部视图
func (s *ViewStore) Flush() {
	for userID := range s.views.Items() {
		s.views.Delete(userID)
	}
}
