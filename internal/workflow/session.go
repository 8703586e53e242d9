package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"zufang_post_v1_202601/internal/media"
	"zufang_post_v1_202601/internal/model"
	"zufang_post_v1_202601/internal/service"
	"zufang_post_v1_202601/internal/store"
	"zufang_post_v1_202601/pkg/utils"
	"zufang_post_v1_202601/pkg/zufang"
)

// ==================== 会话 ====================

// Session 一次发布工作流会话
// 持有该会话独占的状态仓、编排器和绑定了用户令牌的步骤服务
type Session struct {
	ID           string
	Store        *store.DraftStore
	Orchestrator *Orchestrator
	BasicInfo    *service.BasicInfoService
	Media        *service.MediaService
	Publish      *service.PublishService
}

// ==================== 会话管理器 ====================

// SessionManager 会话注册表
// 每个编辑用户同一时刻一个会话，空闲超时自动过期
type SessionManager struct {
	api        *zufang.Client
	journal    service.Recorder
	sessions   *utils.TTLCache
	postingFee int64
	cacheDir   string
}

// NewSessionManager 创建会话管理器
func NewSessionManager(api *zufang.Client, journal service.Recorder, postingFee int64, cacheDir string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		api:        api,
		journal:    journal,
		sessions:   utils.NewTTLCache(ttl),
		postingFee: postingFee,
		cacheDir:   cacheDir,
	}
}

// Open 开启会话并进入工作流
// remoteID 非空时做编辑模式水合；水合被拒绝 (非草稿态/拉取失败) 时
// 不注册会话，错误原样返回给调用方
func (m *SessionManager) Open(ctx context.Context, accessToken, remoteID string) (*Session, error) {
	client := m.api.WithToken(accessToken)
	st := store.NewDraftStore()

	sessionID := uuid.New().String()
	sess := &Session{
		ID:           sessionID,
		Store:        st,
		Orchestrator: NewOrchestrator(st, client),
		BasicInfo:    service.NewBasicInfoService(client, st, m.journal, sessionID),
		Media:        service.NewMediaService(media.NewPipeline(client, client, m.cacheDir), st, m.journal, sessionID),
		Publish:      service.NewPublishService(client, st, m.journal, sessionID, m.postingFee),
	}

	if err := sess.Orchestrator.Start(ctx, remoteID); err != nil {
		if m.journal != nil {
			m.journal.Record(ctx, sessionID, remoteID, 0, model.EventHydrateRefused,
				map[string]interface{}{"error": err.Error()})
		}
		return nil, err
	}

	if m.journal != nil {
		event := model.EventSessionOpened
		if remoteID != "" {
			event = model.EventHydrated
		}
		m.journal.Record(ctx, sessionID, remoteID, 0, event, nil)
	}

	m.sessions.Set(sessionID, sess)
	return sess, nil
}

// ActiveCount 当前存活会话数 (健康检查用)
func (m *SessionManager) ActiveCount() int {
	n := 0
	m.sessions.Range(func(key string, value interface{}) bool {
		n++
		return true
	})
	return n
}

// Get 按 ID 取会话并刷新存活时间
func (m *SessionManager) Get(id string) (*Session, bool) {
	val, ok := m.sessions.Get(id)
	if !ok {
		return nil, false
	}
	m.sessions.Touch(id)
	return val.(*Session), true
}

// Close 关闭会话
// submitted 为 false 时按放弃处理，草稿状态被清空
func (m *SessionManager) Close(ctx context.Context, id string, submitted bool) {
	val, ok := m.sessions.Get(id)
	if ok {
		sess := val.(*Session)
		if submitted {
			sess.Orchestrator.MarkSubmitted()
		} else {
			sess.Orchestrator.Abandon(nil)
			if m.journal != nil {
				m.journal.Record(ctx, id, "", sess.Orchestrator.CurrentStep(), model.EventSessionAbandon, nil)
			}
		}
	}
	m.sessions.Delete(id)
}
