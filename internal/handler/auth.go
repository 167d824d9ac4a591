package handler

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/myratings/internal/middleware"
	"github.com/user/myratings/internal/model"
	"github.com/user/myratings/internal/telegram"
	"github.com/user/myratings/internal/utils"
	"go.uber.org/zap"
)

// TelegramAuth 校验 Mini App 提交的 initData，签发 Token
func (h *Handler) TelegramAuth(c *gin.Context) {
	initData := c.PostForm("initData")
	if initData == "" {
		utils.BadRequest(c, "缺少 initData")
		return
	}

	provider := telegram.InitDataProvider{
		InitData: initData,
		BotToken: h.Config.TelegramBotToken,
		MaxAge:   h.Config.InitDataMaxAge,
		OnError: func(err error) {
			h.Logger.Warn("initData 校验失败", zap.String("ip", c.ClientIP()), zap.Error(err))
		},
	}
	id, ok := provider.Resolve(c.Request.Context())
	if !ok {
		utils.Unauthorized(c, "身份校验失败")
		return
	}

	token, err := middleware.GenerateToken(id, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		h.Logger.Error("生成 Token 失败", zap.Error(err))
		utils.InternalServerError(c, "")
		return
	}
	middleware.SetTokenCookie(c, token, h.Config.JWTExpiry)

	session := sessions.Default(c)
	session.Set("userinfo", model.SessionUser{
		ID:        id.UserID,
		FirstName: id.FirstName,
		Username:  id.Username,
	})
	if err := session.Save(); err != nil {
		h.Logger.Warn("保存 Session 失败", zap.Error(err))
	}

	utils.Success(c, gin.H{
		"userId": id.UserID,
		"token":  token,
	})
}
