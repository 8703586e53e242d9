package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== 事件常量 ====================

const (
	EventSessionOpened  = "session_opened"
	EventHydrated       = "hydrated"
	EventHydrateRefused = "hydrate_refused"
	EventBasicInfoSaved = "basic_info_saved"
	EventImagesUploaded = "images_uploaded"
	EventLocationSaved  = "location_saved"
	EventFeeDebited     = "fee_debited"
	EventTopUpRequired  = "top_up_required"
	EventSubmitted      = "submitted"
	EventRemoteError    = "remote_error"
	EventSessionAbandon = "session_abandoned"
)

// ==================== 数据库模型 ====================

// WorkflowEvent 工作流事件日志
// 本地留痕，仅用于排障与客服回溯，不参与任何状态判断
type WorkflowEvent struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `gorm:"index"`
	SessionID string         `gorm:"size:64;index;not null;comment:会话ID"`
	RemoteID  string         `gorm:"size:64;index;comment:远端房源ID"`
	Step      int            `gorm:"comment:所处步骤"`
	Event     string         `gorm:"size:64;index;not null;comment:事件类型"`
	Payload   datatypes.JSON `gorm:"comment:事件附加数据"`
}

func (*WorkflowEvent) TableName() string {
	return "workflow_events"
}
