package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/user/myratings/internal/model"
	"github.com/user/myratings/internal/utils"
	"go.uber.org/zap"
)

// ErrMalformedResponse 响应缺少必需字段或无法解析
var ErrMalformedResponse = errors.New("评分 API 响应格式错误")

// RatingsFetcher 拉取一页评分
type RatingsFetcher interface {
	FetchRatings(ctx context.Context, q model.RatingsQuery) (*model.RatingsPage, error)
}

// RatingsAPI 远程评分 API 客户端
type RatingsAPI struct {
	endpoint string
	client   *utils.HTTPClient
	logger   *zap.Logger
}

// NewRatingsAPI 创建评分 API 客户端，baseURL 不含 /api/ratings
func NewRatingsAPI(baseURL string, timeout time.Duration, logger *zap.Logger) *RatingsAPI {
	return &RatingsAPI{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/ratings",
		client:   utils.NewHTTPClient(timeout, "myratings/1.0"),
		logger:   logger,
	}
}

// 所有字段都用指针，用于区分缺失与零值
type ratingsPayload struct {
	Ratings    *[]model.Rating `json:"ratings"`
	TotalPages *int            `json:"totalPages"`
	TotalCount *int            `json:"totalCount"`
}

// BuildURL 组装请求地址
func (a *RatingsAPI) BuildURL(q model.RatingsQuery) string {
	params := url.Values{}
	params.Set("userId", q.UserID)
	params.Set("filter", q.Filter.JSON())
	params.Set("page", strconv.Itoa(q.Page))
	return a.endpoint + "?" + params.Encode()
}

// FetchRatings 实现 RatingsFetcher
func (a *RatingsAPI) FetchRatings(ctx context.Context, q model.RatingsQuery) (*model.RatingsPage, error) {
	start := time.Now()
	var payload ratingsPayload
	if err := a.client.GetJSON(ctx, a.BuildURL(q), &payload); err != nil {
		if errors.Is(err, utils.ErrMalformedBody) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return nil, fmt.Errorf("请求评分 API 失败: %w", err)
	}

	if payload.Ratings == nil || payload.TotalPages == nil || payload.TotalCount == nil {
		return nil, fmt.Errorf("%w: 缺少 ratings/totalPages/totalCount", ErrMalformedResponse)
	}

	a.logger.Debug("拉取评分完成",
		zap.String("user_id", q.UserID),
		zap.Int("page", q.Page),
		zap.Int("count", len(*payload.Ratings)),
		zap.Duration("latency", time.Since(start)),
	)

	return &model.RatingsPage{
		Ratings:    *payload.Ratings,
		TotalPages: *payload.TotalPages,
		TotalCount: *payload.TotalCount,
	}, nil
}
