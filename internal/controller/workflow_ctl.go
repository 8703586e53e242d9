package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"zufang_post_v1_202601/internal/api/dto"
	"zufang_post_v1_202601/internal/media"
	"zufang_post_v1_202601/internal/middleware"
	"zufang_post_v1_202601/internal/model"
	"zufang_post_v1_202601/internal/service"
	"zufang_post_v1_202601/internal/workflow"
	"zufang_post_v1_202601/pkg/zufang"
)

// ==================== 控制器 ====================

// WorkflowController 发布工作流控制器
// App 端按步骤驱动这里的接口，每个接口对应一次步骤内的远端持久化
type WorkflowController struct {
	sessions *workflow.SessionManager
	stageDir string
}

// NewWorkflowController 创建控制器
// stageDir 存放 App 直传文件的暂存副本，请求结束即删除
func NewWorkflowController(sessions *workflow.SessionManager, stageDir string) *WorkflowController {
	return &WorkflowController{sessions: sessions, stageDir: stageDir}
}

// ==================== 健康检查 ====================

// Health 健康检查，附带当前存活会话数
func (ctrl *WorkflowController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"active_sessions": ctrl.sessions.ActiveCount(),
	})
}

// ==================== 会话 ====================

// OpenSession 开启工作流会话
// listing_id 非空时做编辑模式水合；远端记录不在草稿态会被直接拒绝
func (ctrl *WorkflowController) OpenSession(c *gin.Context) {
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	token := c.GetString(middleware.ContextKeyAccessToken)
	sess, err := ctrl.sessions.Open(c.Request.Context(), token, req.ListingID)
	if err != nil {
		var notEditable *workflow.ErrNotEditable
		if errors.As(err, &notEditable) {
			c.JSON(http.StatusConflict, gin.H{"code": 409, "message": err.Error()})
			return
		}
		writeRemoteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"code": 0, "message": "success", "data": sessionState(sess)})
}

// GetState 会话读模型
func (ctrl *WorkflowController) GetState(c *gin.Context) {
	sess, ok := ctrl.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": sessionState(sess)})
}

// CloseSession 放弃工作流
func (ctrl *WorkflowController) CloseSession(c *gin.Context) {
	ctrl.sessions.Close(c.Request.Context(), c.Param("sid"), false)
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

// ==================== 步骤 0: 基础信息 ====================

// SaveBasicInfo 校验并保存基础信息
// 校验失败返回字段级错误，不发网络请求；保存成功后自动前进到图片步骤
func (ctrl *WorkflowController) SaveBasicInfo(c *gin.Context) {
	sess, ok := ctrl.session(c)
	if !ok {
		return
	}

	var input service.BasicInfoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	if err := sess.BasicInfo.Save(c.Request.Context(), &input); err != nil {
		var verrs service.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "message": verrs.Error(), "errors": verrs})
			return
		}
		writeRemoteError(c, err)
		return
	}

	if err := sess.Orchestrator.GoNext(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"code": 409, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": sessionState(sess)})
}

// ==================== 步骤 1: 图片 ====================

// UploadImages 批量上传图片
// App 直传的文件先落暂存目录；另可通过 remote_refs 附带已托管的远端引用。
// 默认 replace 语义，响应中的图片列表为服务端权威版本
func (ctrl *WorkflowController) UploadImages(c *gin.Context) {
	sess, ok := ctrl.session(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	replace := true
	if v := c.PostForm("replace"); v == "false" {
		replace = false
	}

	var items []media.PickedImage
	var staged []string

	// 请求结束后删除暂存副本 (管道只负责它自己复制的文件)
	defer func() {
		for _, path := range staged {
			if err := os.Remove(path); err != nil {
				log.Printf("[WorkflowController] 暂存文件删除失败: %v", err)
			}
		}
	}()

	if err := os.MkdirAll(ctrl.stageDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "暂存目录不可用"})
		return
	}

	for i, fh := range form.File["files"] {
		path := filepath.Join(ctrl.stageDir, fmt.Sprintf("stage_%d_%d_%s", time.Now().UnixNano(), i, filepath.Base(fh.Filename)))
		if err := c.SaveUploadedFile(fh, path); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "文件暂存失败: " + err.Error()})
			return
		}
		staged = append(staged, path)
		items = append(items, media.PickedImage{
			Ref:  path,
			Name: fh.Filename,
			MIME: fh.Header.Get("Content-Type"),
		})
	}

	if raw := c.PostForm("remote_refs"); raw != "" {
		var refs []dto.RemoteImageRef
		if err := json.Unmarshal([]byte(raw), &refs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "remote_refs 格式错误"})
			return
		}
		for _, r := range refs {
			items = append(items, media.PickedImage{Ref: r.Ref, Name: r.Name, MIME: r.MIME})
		}
	}

	if err := sess.Media.Upload(c.Request.Context(), items, replace); err != nil {
		writeRemoteError(c, err)
		return
	}

	if err := sess.Orchestrator.GoNext(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"code": 409, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": sessionState(sess)})
}

// ==================== 步骤 2: 位置与发布 ====================

// SaveLocation 幂等保存位置
func (ctrl *WorkflowController) SaveLocation(c *gin.Context) {
	sess, ok := ctrl.session(c)
	if !ok {
		return
	}

	var req dto.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	loc := model.Location{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Address:   req.Address,
	}
	if err := sess.Publish.SaveLocation(c.Request.Context(), loc); err != nil {
		writeRemoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": sessionState(sess)})
}

// PublishQuote 查询发布报价 (余额/费用/余下金额)，供确认页展示
func (ctrl *WorkflowController) PublishQuote(c *gin.Context) {
	sess, ok := ctrl.session(c)
	if !ok {
		return
	}

	quote, err := sess.Publish.Quote(c.Request.Context())
	if err != nil {
		writeRemoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": quote})
}

// PublishConfirm 用户确认后执行发布交易
// 扣款成功但提交失败时费用不自动退回，可直接重试本接口 (不会二次扣款)
func (ctrl *WorkflowController) PublishConfirm(c *gin.Context) {
	sess, ok := ctrl.session(c)
	if !ok {
		return
	}

	if err := sess.Publish.Publish(c.Request.Context()); err != nil {
		if errors.Is(err, service.ErrInsufficientBalance) {
			c.JSON(http.StatusPaymentRequired, gin.H{"code": 402, "message": err.Error(), "need_top_up": true})
			return
		}
		writeRemoteError(c, err)
		return
	}

	ctrl.sessions.Close(c.Request.Context(), sess.ID, true)
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"status": zufang.ListingStatusPending}})
}

// ==================== 导航 ====================

// GoBack 后退一步 (仅导航，不回滚远端状态)
func (ctrl *WorkflowController) GoBack(c *gin.Context) {
	sess, ok := ctrl.session(c)
	if !ok {
		return
	}
	sess.Orchestrator.GoBack()
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": sessionState(sess)})
}

// ResetFlow 回到第 0 步
func (ctrl *WorkflowController) ResetFlow(c *gin.Context) {
	sess, ok := ctrl.session(c)
	if !ok {
		return
	}
	sess.Orchestrator.ResetFlow()
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": sessionState(sess)})
}

// ==================== 内部方法 ====================

// session 取路径参数里的会话，不存在时直接写 404
func (ctrl *WorkflowController) session(c *gin.Context) (*workflow.Session, bool) {
	sess, ok := ctrl.sessions.Get(c.Param("sid"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "会话不存在或已过期"})
		return nil, false
	}
	return sess, true
}

// sessionState 组装会话读模型
func sessionState(sess *workflow.Session) dto.SessionStateResponse {
	return dto.SessionStateResponse{
		SessionID:   sess.ID,
		State:       sess.Orchestrator.State(),
		CurrentStep: sess.Orchestrator.CurrentStep(),
		Completion:  sess.Orchestrator.CompletionMap(),
		Draft:       sess.Store.Snapshot(),
	}
}

// writeRemoteError 把步骤边界捕获的错误转换为用户可见响应
// 开放平台的业务错误原文透出；本地前置条件错误按 400 处理
func writeRemoteError(c *gin.Context, err error) {
	var apiErr *zufang.APIError
	if errors.As(err, &apiErr) {
		c.JSON(http.StatusBadGateway, gin.H{"code": 502, "message": apiErr.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
}
