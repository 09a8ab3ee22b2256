package router

import (
	"context"

	"ats-evaluator/internal/api/handler"
	"ats-evaluator/internal/notify"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// APIKeyHeader 启用鉴权时客户端携带的请求头
const APIKeyHeader = "X-API-Key"

// Routes 路由依赖，Hub 为 nil 时不注册进度 websocket
type Routes struct {
	Evaluation *handler.EvaluationHandler
	Hub        *notify.Hub
	APIKeys    []string
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, r Routes) {
	var auth []app.HandlerFunc
	if mw := apiKeyMiddleware(r.APIKeys); mw != nil {
		auth = append(auth, mw)
	}

	// 原始上传路径
	h.POST("/api/routing/upload", append(auth, r.Evaluation.HandleUpload)...)

	api := h.Group("/api/v1")
	api.POST("/evaluations", append(auth, r.Evaluation.HandleUpload)...)

	if r.Hub != nil {
		api.GET("/progress/ws", r.Hub.ServeWS)
	}

	// 添加健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{
			"status":     "ok",
			"ws_clients": r.Hub.ClientCount(),
		})
	})
}

// apiKeyMiddleware 未配置密钥时返回 nil
func apiKeyMiddleware(keys []string) app.HandlerFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return nil
	}

	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+APIKeyHeader, ""),
		keyauth.WithValidator(func(_ context.Context, _ *app.RequestContext, key string) (bool, error) {
			_, ok := allowed[key]
			return ok, nil
		}),
		keyauth.WithErrorHandler(func(_ context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "invalid or missing API key"})
		}),
	)
}
