package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"zufang_post_v1_202601/internal/controller"
	"zufang_post_v1_202601/internal/middleware"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, logger *zap.Logger, workflowCtl *controller.WorkflowController) {
	r.Use(middleware.AccessLog(logger))

	// 健康检查不走鉴权
	r.GET("/health", workflowCtl.Health)

	api := r.Group("/api", middleware.TokenAuth())
	{
		// workflow 发布工作流
		wf := api.Group("/workflow")
		{
			// POST /api/workflow/sessions
			wf.POST("/sessions", workflowCtl.OpenSession)

			sess := wf.Group("/sessions/:sid")
			{
				sess.GET("", workflowCtl.GetState)
				sess.DELETE("", workflowCtl.CloseSession)

				// 步骤操作
				sess.POST("/basic-info", workflowCtl.SaveBasicInfo)
				sess.POST("/images", workflowCtl.UploadImages)
				sess.POST("/location", workflowCtl.SaveLocation)

				// 发布交易
				sess.GET("/publish/quote", workflowCtl.PublishQuote)
				sess.POST("/publish/confirm", workflowCtl.PublishConfirm)

				// 导航
				sess.POST("/back", workflowCtl.GoBack)
				sess.POST("/reset", workflowCtl.ResetFlow)
			}
		}
	}
}
