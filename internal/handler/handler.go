package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/myratings/internal/config"
	"github.com/user/myratings/internal/middleware"
	"github.com/user/myratings/internal/model"
	"github.com/user/myratings/internal/repository"
	"github.com/user/myratings/internal/service"
	"github.com/user/myratings/internal/utils"
	"go.uber.org/zap"
)

// Handler HTTP 处理器
type Handler struct {
	Config *config.Config
	Views  *repository.ViewStore
	Logger *zap.Logger
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, views *repository.ViewStore, logger *zap.Logger) *Handler {
	return &Handler{
		Config: cfg,
		Views:  views,
		Logger: logger,
	}
}

// RenderData 统一封装公共渲染数据
func (h *Handler) RenderData(c *gin.Context, data gin.H) gin.H {
	res := gin.H{
		"SiteName": h.Config.SiteName,
		"SiteUrl":  h.Config.SiteUrl,
		"Path":     c.Request.URL.Path,
	}

	// 注入用户信息
	session := sessions.Default(c)
	if userinfo := session.Get("userinfo"); userinfo != nil {
		if su, ok := userinfo.(model.SessionUser); ok {
			res["UserInfo"] = su
		}
	}

	for k, v := range data {
		res[k] = v
	}
	return res
}

// currentView 当前登录用户的视图，需在 RequireAuth 之后调用
// 视图只由整页加载创建；不存在时已写入响应，返回 false
func (h *Handler) currentView(c *gin.Context) (*service.RatingsView, bool) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		utils.Unauthorized(c, "")
		return nil, false
	}
	view, ok := h.Views.Get(id.UserID)
	if !ok {
		// 页面上的筛选和页码已与服务端脱节，htmx 请求整页刷新重新同步
		if c.GetHeader("HX-Request") == "true" {
			c.Header("HX-Refresh", "true")
			c.AbortWithStatus(http.StatusNoContent)
			return nil, false
		}
		utils.Conflict(c, "")
		return nil, false
	}
	return view, true
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "views": h.Views.Len()})
}
