package service

import (
	"context"
	"encoding/json"
	"log"

	"zufang_post_v1_202601/internal/model"
	"zufang_post_v1_202601/internal/repository"
)

// JournalService 工作流事件留痕
// 写入失败只记日志：留痕永远不能阻断工作流本身
type JournalService struct {
	repo repository.WorkflowEventRepository
}

var _ Recorder = (*JournalService)(nil)

// NewJournalService 创建留痕服务
func NewJournalService(repo repository.WorkflowEventRepository) *JournalService {
	return &JournalService{repo: repo}
}

// Record 追加一条事件
func (s *JournalService) Record(ctx context.Context, sessionID, remoteID string, step int, event string, payload map[string]interface{}) {
	var raw []byte
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}

	ev := &model.WorkflowEvent{
		SessionID: sessionID,
		RemoteID:  remoteID,
		Step:      step,
		Event:     event,
		Payload:   raw,
	}

	if err := s.repo.Append(ctx, ev); err != nil {
		log.Printf("[Journal] 事件写入失败: %v", err)
	}
}
