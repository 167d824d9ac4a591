package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiringStore 可清理过期项的存储
type ExpiringStore interface {
	DeleteExpired() int
}

// CleanupService 定时清理过期视图
type CleanupService struct {
	store    ExpiringStore
	interval time.Duration
	logger   *zap.Logger
}

// NewCleanupService 创建清理服务
func NewCleanupService(store ExpiringStore, interval time.Duration, logger *zap.Logger) *CleanupService {
	return &CleanupService{store: store, interval: interval, logger: logger}
}

// Start 启动定时清理任务，ctx 取消后退出
func (s *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("[CleanupService] 已停止")
				return
			case <-ticker.C:
				s.RunCleanup()
			}
		}
	}()
}

// RunCleanup 执行一次清理
func (s *CleanupService) RunCleanup() {
	remaining := s.store.DeleteExpired()
	s.logger.Info("[CleanupService] 已清理过期视图", zap.Int("remaining", remaining))
}
