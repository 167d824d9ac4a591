package service

import (
	"context"
	"sync"

	"github.com/user/myratings/internal/model"
	"github.com/user/myratings/internal/telegram"
	"go.uber.org/zap"
)

// ViewState 视图快照，用于渲染和推送
type ViewState struct {
	Loading     bool           `json:"loading"`
	UserID      string         `json:"userId,omitempty"`
	Ratings     []model.Rating `json:"ratings"`
	Filter      model.Filter   `json:"filter"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	TotalCount  int            `json:"totalCount"`
}

// IsEmpty 当前页没有评分
func (s ViewState) IsEmpty() bool { return len(s.Ratings) == 0 }

// ShowPagination 只有多于一页时才显示分页
func (s ViewState) ShowPagination() bool { return s.TotalPages > 1 }

// PrevDisabled 第一页禁用上一页
func (s ViewState) PrevDisabled() bool { return s.CurrentPage <= 1 }

// NextDisabled 最后一页禁用下一页
func (s ViewState) NextDisabled() bool { return s.CurrentPage >= s.TotalPages }

func (s ViewState) PrevPage() int { return s.CurrentPage - 1 }

func (s ViewState) NextPage() int { return s.CurrentPage + 1 }

// RatingsView 评分列表视图状态机
//
// userID、filter、currentPage 任一变化且身份已解析时发起一次拉取。
// 每次拉取分配递增序号，序号小于最近已应用序号的响应会被丢弃，
// 因此后发出的请求结果不会被先发出但晚到的响应覆盖。
type RatingsView struct {
	fetcher RatingsFetcher
	logger  *zap.Logger

	mu          sync.Mutex
	started     bool
	resolved    chan struct{} // 身份解析结束后关闭
	userID      string
	ratings     []model.Rating
	filter      model.Filter
	currentPage int
	totalPages  int
	totalCount  int

	issued  uint64
	applied uint64

	subs    map[int]chan ViewState
	nextSub int
	closed  bool
}

// NewRatingsView 创建视图，初始为第 1 页、共 1 页、0 条
func NewRatingsView(fetcher RatingsFetcher, logger *zap.Logger) *RatingsView {
	return &RatingsView{
		fetcher:     fetcher,
		logger:      logger,
		currentPage: 1,
		totalPages:  1,
		resolved:    make(chan struct{}),
		subs:        make(map[int]chan ViewState),
	}
}

// Start 启动流程，只执行一次
// 身份无法解析时视图永久停留在加载状态，返回 false
// 并发调用会等待第一次调用解析完身份，返回相同结果
func (v *RatingsView) Start(ctx context.Context, provider telegram.IdentityProvider) bool {
	v.mu.Lock()
	if v.started {
		v.mu.Unlock()
		select {
		case <-v.resolved:
		case <-ctx.Done():
			return false
		}
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.userID != ""
	}
	v.started = true
	v.mu.Unlock()

	id, ok := provider.Resolve(ctx)
	if !ok || id.UserID == "" {
		close(v.resolved)
		v.logger.Info("宿主环境未提供用户身份，保持加载状态")
		return false
	}

	v.mu.Lock()
	v.userID = id.UserID
	v.filter = model.Filter{}
	v.mu.Unlock()
	close(v.resolved)

	_ = v.fetch(ctx)
	return true
}

// Reset 页面重新加载时调用：清空筛选和列表，回到第一页并重新拉取
// 身份未解析时返回 false
func (v *RatingsView) Reset(ctx context.Context) bool {
	v.mu.Lock()
	if v.userID == "" {
		v.mu.Unlock()
		return false
	}
	v.filter = model.Filter{}
	v.ratings = nil
	v.currentPage = 1
	v.totalPages = 1
	v.totalCount = 0
	v.mu.Unlock()

	_ = v.fetch(ctx)
	return true
}

// Refresh 按当前状态重新拉取
func (v *RatingsView) Refresh(ctx context.Context) error {
	return v.fetch(ctx)
}

// HandleFilterChange 修改筛选条件并回到第一页
func (v *RatingsView) HandleFilterChange(ctx context.Context, key model.FilterKey, raw string) error {
	v.mu.Lock()
	next, err := ApplyFilterInput(v.filter, key, raw)
	if err != nil {
		v.mu.Unlock()
		return err
	}
	v.filter = next
	v.currentPage = 1
	v.mu.Unlock()

	// 失败已记录日志，状态保持不变
	_ = v.fetch(ctx)
	return nil
}

// HandlePageChange 翻页，超出 [1, totalPages] 时忽略
func (v *RatingsView) HandlePageChange(ctx context.Context, newPage int) bool {
	v.mu.Lock()
	if newPage < 1 || newPage > v.totalPages || newPage == v.currentPage {
		v.mu.Unlock()
		return false
	}
	v.currentPage = newPage
	v.mu.Unlock()

	_ = v.fetch(ctx)
	return true
}

// Snapshot 返回当前状态的副本
func (v *RatingsView) Snapshot() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Subscribe 订阅状态变化，每次应用响应后推送最新快照
// 消费慢时只保留最新一条
func (v *RatingsView) Subscribe() (<-chan ViewState, func()) {
	ch := make(chan ViewState, 1)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		close(ch)
		return ch, func() {}
	}
	id := v.nextSub
	v.nextSub++
	v.subs[id] = ch

	return ch, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if c, ok := v.subs[id]; ok {
			delete(v.subs, id)
			close(c)
		}
	}
}

// Close 关闭所有订阅
func (v *RatingsView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for id, ch := range v.subs {
		delete(v.subs, id)
		close(ch)
	}
}

func (v *RatingsView) fetch(ctx context.Context) error {
	v.mu.Lock()
	if v.userID == "" {
		v.mu.Unlock()
		return nil
	}
	v.issued++
	seq := v.issued
	q := model.RatingsQuery{
		UserID: v.userID,
		Filter: v.filter.Clone(),
		Page:   v.currentPage,
	}
	v.mu.Unlock()

	page, err := v.fetcher.FetchRatings(ctx, q)
	if err != nil {
		v.logger.Warn("拉取评分失败",
			zap.String("user_id", q.UserID),
			zap.Int("page", q.Page),
			zap.Uint64("seq", seq),
			zap.Error(err),
		)
		return err
	}

	v.mu.Lock()
	if seq < v.applied {
		applied := v.applied
		v.mu.Unlock()
		v.logger.Debug("丢弃过期响应",
			zap.Uint64("seq", seq),
			zap.Uint64("applied", applied),
		)
		return nil
	}
	v.applied = seq
	v.ratings = append([]model.Rating(nil), page.Ratings...)
	v.totalPages = page.TotalPages
	v.totalCount = page.TotalCount

	clamped := false
	if last := max(v.totalPages, 1); v.currentPage > last {
		v.currentPage = last
		clamped = true
	}
	v.publishLocked(v.snapshotLocked())
	v.mu.Unlock()

	if clamped {
		return v.fetch(ctx)
	}
	return nil
}

func (v *RatingsView) snapshotLocked() ViewState {
	ratings := make([]model.Rating, len(v.ratings))
	copy(ratings, v.ratings)
	return ViewState{
		Loading:     v.userID == "",
		UserID:      v.userID,
		Ratings:     ratings,
		Filter:      v.filter.Clone(),
		CurrentPage: v.currentPage,
		TotalPages:  v.totalPages,
		TotalCount:  v.totalCount,
	}
}

func (v *RatingsView) publishLocked(s ViewState) {
	for _, ch := range v.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}
