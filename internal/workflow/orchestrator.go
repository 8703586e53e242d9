package workflow

import (
	"context"
	"fmt"
	"sync"

	"zufang_post_v1_202601/internal/model"
	"zufang_post_v1_202601/internal/store"
	"zufang_post_v1_202601/pkg/zufang"
)

// ==================== 外部服务依赖 ====================

// ListingFetcher 房源拉取接口 (编辑模式水合)
type ListingFetcher interface {
	FetchListing(ctx context.Context, id string) (*zufang.ListingResp, error)
}

// ==================== 状态机 ====================

// 流转: Loading -> {Step0 <-> Step1 <-> Step2} -> Submitted | Abandoned
const (
	StateLoading   = "loading"
	StateSteps     = "steps"
	StateSubmitted = "submitted"
	StateAbandoned = "abandoned"
)

// 步骤序号
const (
	StepBasicInfo = 0
	StepMedia     = 1
	StepLocation  = 2
)

// ErrNotEditable 远端记录已不在草稿态，拒绝进入编辑
type ErrNotEditable struct {
	Status string
}

func (e *ErrNotEditable) Error() string {
	return fmt.Sprintf("房源当前状态为 %s，不可编辑", e.Status)
}

// Orchestrator 步骤编排器
// 串联三个步骤并守门导航；完成度完全由草稿状态推导，
// 自身不重复校验步骤内部逻辑
type Orchestrator struct {
	mu      sync.Mutex
	store   *store.DraftStore
	fetcher ListingFetcher

	state       string
	currentStep int
	lastErr     error
}

// NewOrchestrator 创建编排器
func NewOrchestrator(st *store.DraftStore, fetcher ListingFetcher) *Orchestrator {
	return &Orchestrator{
		store:   st,
		fetcher: fetcher,
		state:   StateLoading,
	}
}

// Start 进入工作流
// remoteID 为空走新建模式；非空时拉取远端记录做水合，
// 记录不在草稿态或拉取失败时直接进入 Abandoned，绝不进入步骤序列
func (o *Orchestrator) Start(ctx context.Context, remoteID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if remoteID == "" {
		o.store.SetMode(model.ModeCreate)
		o.state = StateSteps
		o.currentStep = StepBasicInfo
		return nil
	}

	listing, err := o.fetcher.FetchListing(ctx, remoteID)
	if err != nil {
		o.state = StateAbandoned
		o.lastErr = err
		return err
	}

	if listing.Status != zufang.ListingStatusDraft {
		err := &ErrNotEditable{Status: listing.Status}
		o.state = StateAbandoned
		o.lastErr = err
		return err
	}

	// 逐字段水合状态仓
	o.store.SetMode(model.ModeEdit)
	o.store.SetRemoteID(listing.ID)
	o.store.SetBasicInfo(model.ListingFields{
		Title:        listing.Title,
		Description:  listing.Description,
		Price:        listing.Price,
		Area:         listing.Area,
		Address:      listing.Address,
		ContactPhone: listing.ContactPhone,
		Category:     listing.Category,
	})
	o.store.SetImages(listing.Images)
	if listing.Location != nil {
		o.store.SetLocation(model.Location{
			Latitude:  listing.Location.Latitude,
			Longitude: listing.Location.Longitude,
			Address:   listing.Location.Address,
		})
	}

	o.state = StateSteps
	o.currentStep = StepBasicInfo
	return nil
}

// State 当前状态
func (o *Orchestrator) State() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// CurrentStep 当前步骤序号
func (o *Orchestrator) CurrentStep() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentStep
}

// LastErr 终止时的错误
func (o *Orchestrator) LastErr() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// CompletionMap 步骤完成度，纯粹由草稿状态推导
func (o *Orchestrator) CompletionMap() [3]bool {
	draft := o.store.Snapshot()
	return [3]bool{
		draft.HasRemote(),
		len(draft.Images) >= model.MinImages,
		draft.Location != nil,
	}
}

// GoNext 前进一步
// 由活动步骤在自身远端持久化成功后调用，编排器不再重复校验
func (o *Orchestrator) GoNext() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateSteps {
		return fmt.Errorf("工作流已结束 (%s)", o.state)
	}
	if o.currentStep < StepLocation {
		o.currentStep++
	}
	return nil
}

// GoBack 后退一步，仅导航动作，不回滚已持久化的远端状态
func (o *Orchestrator) GoBack() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateSteps && o.currentStep > StepBasicInfo {
		o.currentStep--
	}
}

// ResetFlow 回到第 0 步 (用户要求重新开始时)
func (o *Orchestrator) ResetFlow() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateSteps {
		o.currentStep = StepBasicInfo
	}
}

// MarkSubmitted 提交成功后终结工作流并清空草稿
func (o *Orchestrator) MarkSubmitted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateSubmitted
	o.store.Reset()
}

// Abandon 放弃工作流，清空草稿防止状态泄漏进后续会话
func (o *Orchestrator) Abandon(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateSubmitted {
		return
	}
	o.state = StateAbandoned
	o.lastErr = err
	o.store.Reset()
}
