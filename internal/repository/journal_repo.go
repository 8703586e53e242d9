package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"zufang_post_v1_202601/internal/model"
)

// ==================== 仓储接口 ====================

// WorkflowEventRepository 工作流事件仓储接口
type WorkflowEventRepository interface {
	Append(ctx context.Context, ev *model.WorkflowEvent) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]model.WorkflowEvent, error)

	// PruneBefore 删除 cutoff 之前的事件，返回删除行数
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ==================== 仓储实现 ====================

type workflowEventRepo struct {
	db *gorm.DB
}

// NewWorkflowEventRepository 创建事件仓储
func NewWorkflowEventRepository(db *gorm.DB) WorkflowEventRepository {
	return &workflowEventRepo{db: db}
}

func (r *workflowEventRepo) Append(ctx context.Context, ev *model.WorkflowEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *workflowEventRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]model.WorkflowEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []model.WorkflowEvent
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *workflowEventRepo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.WorkflowEvent{})
	return result.RowsAffected, result.Error
}
