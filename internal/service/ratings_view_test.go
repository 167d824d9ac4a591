package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/myratings/internal/model"
	"github.com/user/myratings/internal/service/mocks"
	"github.com/user/myratings/internal/telegram"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

var me = telegram.StaticIdentity{UserID: "42", FirstName: "Ann"}

func ratingsPage(totalPages, totalCount int, titles ...string) *model.RatingsPage {
	p := &model.RatingsPage{Ratings: []model.Rating{}, TotalPages: totalPages, TotalCount: totalCount}
	for _, title := range titles {
		p.Ratings = append(p.Ratings, model.Rating{ID: "id-" + title, Title: title, Type: model.RatingTypeMovie, Rating: 7, Year: 2000, Genre: "Drama"})
	}
	return p
}

func query(page int, f model.Filter) model.RatingsQuery {
	return model.RatingsQuery{UserID: "42", Filter: f, Page: page}
}

func TestRatingsViewStartsLoadingWithoutIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockRatingsFetcher(ctrl)
	v := NewRatingsView(fetcher, zap.NewNop())

	assert.False(t, v.Start(context.Background(), telegram.NoIdentity{}))
	assert.True(t, v.Snapshot().Loading)

	// 身份未解析时任何操作都不会发起请求
	require.NoError(t, v.HandleFilterChange(context.Background(), model.FilterGenre, "Drama"))
	require.NoError(t, v.Refresh(context.Background()))
	assert.True(t, v.Snapshot().Loading)

	// 启动只执行一次
	assert.False(t, v.Start(context.Background(), me))
}

func TestRatingsViewStartFetchesFirstPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockRatingsFetcher(ctrl)
	fetcher.EXPECT().FetchRatings(gomock.Any(), query(1, model.Filter{})).
		Return(ratingsPage(3, 25, "Heat", "Ronin"), nil).Times(1)

	v := NewRatingsView(fetcher, zap.NewNop())
	require.True(t, v.Start(context.Background(), me))
	require.True(t, v.Start(context.Background(), me))

	want := ViewState{
		UserID:      "42",
		Ratings:     ratingsPage(3, 25, "Heat", "Ronin").Ratings,
		CurrentPage: 1,
		TotalPages:  3,
		TotalCount:  25,
	}
	if diff := cmp.Diff(want, v.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestRatingsViewFilterChangeResetsPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockRatingsFetcher(ctrl)
	drama := model.Filter{Genre: strPtr("Drama")}
	gomock.InOrder(
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(1, model.Filter{})).Return(ratingsPage(3, 25, "a"), nil),
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(2, model.Filter{})).Return(ratingsPage(3, 25, "b"), nil),
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(1, drama)).Return(ratingsPage(2, 12, "c"), nil),
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(1, model.Filter{})).Return(ratingsPage(3, 25, "a"), nil),
	)

	ctx := context.Background()
	v := NewRatingsView(fetcher, zap.NewNop())
	require.True(t, v.Start(ctx, me))
	require.True(t, v.HandlePageChange(ctx, 2))
	assert.Equal(t, 2, v.Snapshot().CurrentPage)

	require.NoError(t, v.HandleFilterChange(ctx, model.FilterGenre, "Drama"))
	s := v.Snapshot()
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, 12, s.TotalCount)
	assert.Equal(t, drama, s.Filter)

	// 清空后该键从筛选条件中移除
	require.NoError(t, v.HandleFilterChange(ctx, model.FilterGenre, ""))
	assert.True(t, v.Snapshot().Filter.IsEmpty())
}

func TestRatingsViewInvalidFilterDoesNotFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockRatingsFetcher(ctrl)
	fetcher.EXPECT().FetchRatings(gomock.Any(), query(1, model.Filter{})).Return(ratingsPage(3, 25, "a"), nil)

	ctx := context.Background()
	v := NewRatingsView(fetcher, zap.NewNop())
	require.True(t, v.Start(ctx, me))
	before := v.Snapshot()

	err := v.HandleFilterChange(ctx, model.FilterYear, "nineteen")
	assert.ErrorIs(t, err, ErrInvalidFilterValue)
	assert.Equal(t, before, v.Snapshot())
}

func TestRatingsViewPageBounds(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockRatingsFetcher(ctrl)
	gomock.InOrder(
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(1, model.Filter{})).Return(ratingsPage(3, 25, "a"), nil),
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(3, model.Filter{})).Return(ratingsPage(3, 25, "c"), nil),
	)

	ctx := context.Background()
	v := NewRatingsView(fetcher, zap.NewNop())
	require.True(t, v.Start(ctx, me))

	assert.False(t, v.HandlePageChange(ctx, 0))
	assert.False(t, v.HandlePageChange(ctx, 4))
	assert.False(t, v.HandlePageChange(ctx, 1), "same page")
	assert.Equal(t, 1, v.Snapshot().CurrentPage)

	assert.True(t, v.HandlePageChange(ctx, 3))
	s := v.Snapshot()
	assert.Equal(t, 3, s.CurrentPage)
	assert.True(t, s.NextDisabled())
	assert.False(t, s.PrevDisabled())
}

func TestRatingsViewFailedFetchKeepsState(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockRatingsFetcher(ctrl)
	boom := errors.New("connection refused")
	gomock.InOrder(
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(1, model.Filter{})).Return(ratingsPage(3, 25, "a", "b"), nil),
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(2, model.Filter{})).Return(nil, boom),
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(2, model.Filter{})).Return(nil, boom),
	)

	ctx := context.Background()
	v := NewRatingsView(fetcher, zap.NewNop())
	require.True(t, v.Start(ctx, me))
	before := v.Snapshot()

	require.True(t, v.HandlePageChange(ctx, 2))
	after := v.Snapshot()
	assert.Equal(t, before.Ratings, after.Ratings)
	assert.Equal(t, before.TotalPages, after.TotalPages)
	assert.Equal(t, before.TotalCount, after.TotalCount)

	assert.ErrorIs(t, v.Refresh(ctx), boom)
}

func TestRatingsViewClampsPageWhenTotalShrinks(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockRatingsFetcher(ctrl)
	gomock.InOrder(
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(1, model.Filter{})).Return(ratingsPage(3, 25, "a"), nil),
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(3, model.Filter{})).Return(ratingsPage(3, 25, "c"), nil),
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(3, model.Filter{})).Return(ratingsPage(2, 15), nil),
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(2, model.Filter{})).Return(ratingsPage(2, 15, "b"), nil),
	)

	ctx := context.Background()
	v := NewRatingsView(fetcher, zap.NewNop())
	require.True(t, v.Start(ctx, me))
	require.True(t, v.HandlePageChange(ctx, 3))
	require.NoError(t, v.Refresh(ctx))

	s := v.Snapshot()
	assert.Equal(t, 2, s.CurrentPage)
	assert.Equal(t, 2, s.TotalPages)
	require.Len(t, s.Ratings, 1)
	assert.Equal(t, "b", s.Ratings[0].Title)
}

// gatedFetcher 按页码阻塞，直到测试放行对应响应
type gatedFetcher struct {
	started chan int
	release map[int]chan *model.RatingsPage
}

func newGatedFetcher(pages ...int) *gatedFetcher {
	f := &gatedFetcher{
		started: make(chan int, 8),
		release: make(map[int]chan *model.RatingsPage),
	}
	for _, p := range pages {
		f.release[p] = make(chan *model.RatingsPage, 1)
	}
	return f
}

func (f *gatedFetcher) FetchRatings(ctx context.Context, q model.RatingsQuery) (*model.RatingsPage, error) {
	f.started <- q.Page
	select {
	case p := <-f.release[q.Page]:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRatingsViewDiscardsStaleResponse(t *testing.T) {
	ctx := context.Background()
	f := newGatedFetcher(1, 2, 3)
	f.release[1] <- ratingsPage(3, 25, "first")

	v := NewRatingsView(f, zap.NewNop())
	require.True(t, v.Start(ctx, me))
	require.Equal(t, 1, <-f.started)

	updates, cancel := v.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		v.HandlePageChange(ctx, 2)
	}()
	require.Equal(t, 2, <-f.started)
	go func() {
		defer wg.Done()
		v.HandlePageChange(ctx, 3)
	}()
	require.Equal(t, 3, <-f.started)

	// 后发出的请求先返回
	f.release[3] <- ratingsPage(3, 25, "third")
	select {
	case s := <-updates:
		require.Len(t, s.Ratings, 1)
		assert.Equal(t, "third", s.Ratings[0].Title)
	case <-time.After(time.Second):
		t.Fatal("no update after page 3 response")
	}

	// 先发出的请求晚到，应被丢弃
	f.release[2] <- ratingsPage(3, 25, "second")
	wg.Wait()

	s := v.Snapshot()
	assert.Equal(t, 3, s.CurrentPage)
	assert.Equal(t, "third", s.Ratings[0].Title)
	select {
	case s := <-updates:
		t.Fatalf("unexpected update from stale response: %+v", s)
	default:
	}
}

func TestRatingsViewCloseReleasesSubscribers(t *testing.T) {
	v := NewRatingsView(newGatedFetcher(), zap.NewNop())
	ch, cancel := v.Subscribe()
	v.Close()
	_, ok := <-ch
	assert.False(t, ok)
	cancel()

	late, _ := v.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestRatingsViewResetStartsOver(t *testing.T) {
	ctx := context.Background()
	genre := "Drama"
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockRatingsFetcher(ctrl)
	gomock.InOrder(
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(1, model.Filter{})).Return(ratingsPage(3, 25, "a", "b"), nil),
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(1, model.Filter{Genre: &genre})).Return(ratingsPage(3, 25, "c", "d"), nil),
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(2, model.Filter{Genre: &genre})).Return(ratingsPage(3, 25, "e", "f"), nil),
		fetcher.EXPECT().FetchRatings(gomock.Any(), query(1, model.Filter{})).Return(ratingsPage(1, 1, "fresh"), nil),
	)

	v := NewRatingsView(fetcher, zap.NewNop())
	require.True(t, v.Start(ctx, me))
	require.NoError(t, v.HandleFilterChange(ctx, model.FilterGenre, genre))
	require.True(t, v.HandlePageChange(ctx, 2))

	require.True(t, v.Reset(ctx))

	want := ViewState{
		UserID:      "42",
		Ratings:     ratingsPage(1, 1, "fresh").Ratings,
		CurrentPage: 1,
		TotalPages:  1,
		TotalCount:  1,
	}
	if diff := cmp.Diff(want, v.Snapshot()); diff != "" {
		t.Fatalf("snapshot after reset mismatch (-want +got):\n%s", diff)
	}
}

func TestRatingsViewResetWithoutIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := NewRatingsView(mocks.NewMockRatingsFetcher(ctrl), zap.NewNop())
	assert.False(t, v.Reset(context.Background()))
	assert.False(t, v.Start(context.Background(), telegram.NoIdentity{}))
	assert.False(t, v.Reset(context.Background()))
}

// blockingProvider 在 release 关闭前阻塞身份解析
type blockingProvider struct {
	entered chan struct{}
	release chan struct{}
}

func (p blockingProvider) Resolve(context.Context) (telegram.Identity, bool) {
	close(p.entered)
	<-p.release
	return telegram.Identity(me), true
}

func TestRatingsViewConcurrentStartWaitsForIdentity(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockRatingsFetcher(ctrl)
	fetcher.EXPECT().FetchRatings(gomock.Any(), query(1, model.Filter{})).
		Return(ratingsPage(1, 1, "only"), nil).Times(1)

	v := NewRatingsView(fetcher, zap.NewNop())
	p := blockingProvider{entered: make(chan struct{}), release: make(chan struct{})}

	results := make(chan bool, 2)
	go func() { results <- v.Start(ctx, p) }()
	<-p.entered
	go func() { results <- v.Start(ctx, p) }()
	close(p.release)

	for range 2 {
		select {
		case ok := <-results:
			assert.True(t, ok)
		case <-time.After(time.Second):
			t.Fatal("Start did not return")
		}
	}
}
