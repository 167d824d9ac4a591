package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/myratings/internal/middleware"
	"github.com/user/myratings/internal/model"
	"github.com/user/myratings/internal/service"
	"github.com/user/myratings/internal/utils"
	"go.uber.org/zap"
)

// Index 首页
// 未取得宿主身份时只渲染加载页，由页面脚本提交 initData。
// 每次整页加载都从空筛选、第一页重新开始
func (h *Handler) Index(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		h.renderLoading(c)
		return
	}

	state := h.Views.Restart(c.Request.Context(), id).Snapshot()
	if state.Loading {
		h.renderLoading(c)
		return
	}

	c.HTML(http.StatusOK, "index.html", h.RenderData(c, gin.H{
		"Title":      "Your Ratings",
		"State":      state,
		"FilterKeys": model.FilterKeys,
	}))
}

func (h *Handler) renderLoading(c *gin.Context) {
	c.HTML(http.StatusOK, "loading.html", h.RenderData(c, gin.H{
		"Title": h.Config.SiteName,
	}))
}

// Ratings 评分列表局部页面
func (h *Handler) Ratings(c *gin.Context) {
	view, ok := h.currentView(c)
	if !ok {
		return
	}
	h.renderRatings(c, view.Snapshot())
}

// FilterChange 修改筛选条件，回到第一页并重新拉取
func (h *Handler) FilterChange(c *gin.Context) {
	view, ok := h.currentView(c)
	if !ok {
		return
	}

	key := model.FilterKey(c.Query("key"))
	value := c.Query("value")
	if err := view.HandleFilterChange(c.Request.Context(), key, value); err != nil {
		if errors.Is(err, service.ErrUnknownFilterKey) || errors.Is(err, service.ErrInvalidFilterValue) {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error("修改筛选条件失败", zap.Error(err))
		c.String(http.StatusInternalServerError, "操作失败")
		return
	}
	h.renderRatings(c, view.Snapshot())
}

// PageChange 翻页，越界时保持当前页
func (h *Handler) PageChange(c *gin.Context) {
	view, ok := h.currentView(c)
	if !ok {
		return
	}

	pageStr := c.PostForm("page")
	if pageStr == "" {
		pageStr = c.Query("page")
	}
	if page, err := strconv.Atoi(pageStr); err == nil {
		view.HandlePageChange(c.Request.Context(), page)
	}
	h.renderRatings(c, view.Snapshot())
}

// Refresh 按当前筛选和页码重新拉取，失败时保留原列表
func (h *Handler) Refresh(c *gin.Context) {
	view, ok := h.currentView(c)
	if !ok {
		return
	}
	if err := view.Refresh(c.Request.Context()); err != nil {
		h.Logger.Warn("刷新评分失败", zap.String("user_id", middleware.GetUserID(c)), zap.Error(err))
	}
	h.renderRatings(c, view.Snapshot())
}

// State 当前视图状态（JSON）
func (h *Handler) State(c *gin.Context) {
	view, ok := h.currentView(c)
	if !ok {
		return
	}
	utils.Success(c, view.Snapshot())
}

func (h *Handler) renderRatings(c *gin.Context, state service.ViewState) {
	c.HTML(http.StatusOK, "partials/ratings.html", state)
}
