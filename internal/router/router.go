package router

import (
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
	"github.com/user/myratings/internal/handler"
	"github.com/user/myratings/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", h.Health)

	// ==================== 页面 ====================
	r.GET("/", middleware.OptionalAuth(h.Config.AppSecret), h.Index)

	// ==================== 认证 ====================
	r.POST("/auth/telegram", h.TelegramAuth)

	// ==================== htmx 局部页面 ====================
	ratings := r.Group("/ratings")
	ratings.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		ratings.GET("", h.Ratings)

		limited := ratings.Group("")
		limited.Use(middleware.RateLimit(h.Config.RateLimit, h.Config.RateBurst))
		limited.GET("/filter", h.FilterChange)
		limited.POST("/page", h.PageChange)
		limited.POST("/refresh", h.Refresh)
	}

	// ==================== API ====================
	api := r.Group("/api")
	api.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		api.GET("/state", h.State)
	}

	r.GET("/ws", middleware.RequireAuth(h.Config.AppSecret), h.WS)
}

// TemplateFuncs 模板函数
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
	}
}

// LoadTemplates 使用 multitemplate 加载模板，解决模板继承问题
func LoadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	partials, err := filepath.Glob(templatesDir + "/partials/*.html")
	if err != nil {
		panic(err)
	}

	// 组装模板文件列表
	assemble := func(view string) []string {
		files := make([]string, 0)
		files = append(files, layouts...)
		files = append(files, partials...)
		files = append(files, view)
		return files
	}

	funcMap := TemplateFuncs()

	// 完整页面
	for _, page := range []string{"index", "loading"} {
		viewPath := templatesDir + "/pages/" + page + ".html"
		r.AddFromFilesFuncs(page+".html", funcMap, assemble(viewPath)...)
	}

	// htmx 局部页面单独注册，按 "partials/xxx.html" 渲染
	for _, partial := range partials {
		r.AddFromFilesFuncs("partials/"+filepath.Base(partial), funcMap, partial)
	}

	return r
}
