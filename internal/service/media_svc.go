package service

import (
	"context"
	"errors"

	"zufang_post_v1_202601/internal/media"
	"zufang_post_v1_202601/internal/model"
	"zufang_post_v1_202601/internal/store"
)

// MediaService 图片步骤
// 对摄取管道做一层工作流语义包装：前置校验 + 状态仓采纳
type MediaService struct {
	pipeline  *media.Pipeline
	store     *store.DraftStore
	journal   Recorder
	sessionID string
}

// NewMediaService 创建图片步骤服务
func NewMediaService(pipeline *media.Pipeline, st *store.DraftStore, journal Recorder, sessionID string) *MediaService {
	return &MediaService{
		pipeline:  pipeline,
		store:     st,
		journal:   journal,
		sessionID: sessionID,
	}
}

// Upload 批量上传图片
// replace 为 true (默认语义) 时要求本批即为完整图片集，不足 3 张直接拒绝，
// 不发起上传；成功后用响应的权威列表整体替换状态仓
func (s *MediaService) Upload(ctx context.Context, items []media.PickedImage, replace bool) error {
	draft := s.store.Snapshot()
	if !draft.HasRemote() {
		return errors.New("请先保存基础信息")
	}

	if replace && len(items) < model.MinImages {
		return errors.New("至少需要上传 3 张图片")
	}

	images, err := s.pipeline.Ingest(ctx, draft.RemoteID, items, replace)
	if err != nil {
		if s.journal != nil {
			s.journal.Record(ctx, s.sessionID, draft.RemoteID, 1, model.EventRemoteError,
				map[string]interface{}{"op": "upload_images", "error": err.Error()})
		}
		return err
	}

	s.store.SetImages(images)

	if s.journal != nil {
		s.journal.Record(ctx, s.sessionID, draft.RemoteID, 1, model.EventImagesUploaded,
			map[string]interface{}{"count": len(images), "replace": replace})
	}
	return nil
}
