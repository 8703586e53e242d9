package dto

import "zufang_post_v1_202601/internal/model"

// OpenSessionRequest 开启工作流会话
// listing_id 非空时进入编辑模式
type OpenSessionRequest struct {
	ListingID string `json:"listing_id"`
}

// SessionStateResponse 会话读模型
type SessionStateResponse struct {
	SessionID   string      `json:"session_id"`
	State       string      `json:"state"`
	CurrentStep int         `json:"current_step"`
	Completion  [3]bool     `json:"completion"`
	Draft       model.Draft `json:"draft"`
}

// RemoteImageRef 远端图片引用 (已在别处托管、无需经设备上传的图)
type RemoteImageRef struct {
	Ref  string `json:"ref"`
	Name string `json:"name"`
	MIME string `json:"mime"`
}

// LocationRequest 保存位置
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Address   string   `json:"address" binding:"required"`
}
