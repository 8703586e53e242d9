package workflow

import (
	"context"
	"errors"
	"testing"

	"zufang_post_v1_202601/internal/model"
	"zufang_post_v1_202601/internal/store"
	"zufang_post_v1_202601/pkg/zufang"
)

// ==================== Mock 实现 ====================

type mockFetcher struct {
	fetchFn func(ctx context.Context, id string) (*zufang.ListingResp, error)
}

func (m *mockFetcher) FetchListing(ctx context.Context, id string) (*zufang.ListingResp, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, id)
	}
	return &zufang.ListingResp{ID: id, Status: zufang.ListingStatusDraft}, nil
}

// ==================== 启动测试 ====================

func TestOrchestrator_StartCreateMode(t *testing.T) {
	st := store.NewDraftStore()
	o := NewOrchestrator(st, &mockFetcher{})

	if err := o.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if o.State() != StateSteps {
		t.Errorf("State = %s, want steps", o.State())
	}
	if o.CurrentStep() != StepBasicInfo {
		t.Errorf("CurrentStep = %d, want 0", o.CurrentStep())
	}
	if st.Snapshot().Mode != model.ModeCreate {
		t.Errorf("Mode = %s, want create", st.Snapshot().Mode)
	}
}

func TestOrchestrator_StartEditModeHydrates(t *testing.T) {
	st := store.NewDraftStore()
	fetcher := &mockFetcher{
		fetchFn: func(ctx context.Context, id string) (*zufang.ListingResp, error) {
			return &zufang.ListingResp{
				ID:           id,
				Status:       zufang.ListingStatusDraft,
				Title:        "静安两室一厅",
				Price:        350000,
				Images:       []string{"a.jpg", "b.jpg", "c.jpg"},
				Location:     &zufang.LocationResp{Latitude: 31.23, Longitude: 121.47, Address: "上海"},
				ContactPhone: "13800000000",
			}, nil
		},
	}
	o := NewOrchestrator(st, fetcher)

	if err := o.Start(context.Background(), "r7"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	draft := st.Snapshot()
	if draft.Mode != model.ModeEdit {
		t.Errorf("Mode = %s, want edit", draft.Mode)
	}
	if draft.RemoteID != "r7" {
		t.Errorf("RemoteID = %s, want r7", draft.RemoteID)
	}
	if draft.Fields.Title != "静安两室一厅" || draft.Fields.Price != 350000 {
		t.Errorf("Fields = %+v", draft.Fields)
	}
	if len(draft.Images) != 3 {
		t.Errorf("Images = %v", draft.Images)
	}
	if draft.Location == nil || draft.Location.Address != "上海" {
		t.Errorf("Location = %+v", draft.Location)
	}
}

func TestOrchestrator_StartRefusesNonDraft(t *testing.T) {
	for _, status := range []string{
		zufang.ListingStatusPending,
		zufang.ListingStatusApproved,
		zufang.ListingStatusRejected,
	} {
		t.Run(status, func(t *testing.T) {
			st := store.NewDraftStore()
			fetcher := &mockFetcher{
				fetchFn: func(ctx context.Context, id string) (*zufang.ListingResp, error) {
					return &zufang.ListingResp{ID: id, Status: status}, nil
				},
			}
			o := NewOrchestrator(st, fetcher)

			err := o.Start(context.Background(), "r7")

			var notEditable *ErrNotEditable
			if !errors.As(err, &notEditable) {
				t.Fatalf("error = %v, want ErrNotEditable", err)
			}
			if notEditable.Status != status {
				t.Errorf("Status = %s, want %s", notEditable.Status, status)
			}
			if o.State() != StateAbandoned {
				t.Errorf("State = %s, want abandoned (绝不进入步骤序列)", o.State())
			}
			if st.Snapshot().RemoteID != "" {
				t.Error("被拒绝的水合不应写入状态仓")
			}
		})
	}
}

func TestOrchestrator_StartFetchFailure(t *testing.T) {
	o := NewOrchestrator(store.NewDraftStore(), &mockFetcher{
		fetchFn: func(ctx context.Context, id string) (*zufang.ListingResp, error) {
			return nil, errors.New("网络超时")
		},
	})

	if err := o.Start(context.Background(), "r7"); err == nil {
		t.Fatal("拉取失败应返回错误")
	}
	if o.State() != StateAbandoned {
		t.Errorf("State = %s, want abandoned", o.State())
	}
	if o.LastErr() == nil {
		t.Error("LastErr 应记录终止原因")
	}
}

// ==================== 导航测试 ====================

func startedOrchestrator(t *testing.T) (*Orchestrator, *store.DraftStore) {
	t.Helper()
	st := store.NewDraftStore()
	o := NewOrchestrator(st, &mockFetcher{})
	if err := o.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return o, st
}

func TestOrchestrator_Navigation(t *testing.T) {
	o, _ := startedOrchestrator(t)

	if err := o.GoNext(); err != nil {
		t.Fatalf("GoNext() error = %v", err)
	}
	if o.CurrentStep() != StepMedia {
		t.Errorf("CurrentStep = %d, want 1", o.CurrentStep())
	}

	o.GoNext()
	if o.CurrentStep() != StepLocation {
		t.Errorf("CurrentStep = %d, want 2", o.CurrentStep())
	}

	// 上界钳制
	o.GoNext()
	if o.CurrentStep() != StepLocation {
		t.Errorf("越过末步后 CurrentStep = %d, want 2", o.CurrentStep())
	}

	o.GoBack()
	if o.CurrentStep() != StepMedia {
		t.Errorf("CurrentStep = %d, want 1", o.CurrentStep())
	}

	// 下界钳制
	o.GoBack()
	o.GoBack()
	if o.CurrentStep() != StepBasicInfo {
		t.Errorf("越过首步后 CurrentStep = %d, want 0", o.CurrentStep())
	}
}

func TestOrchestrator_ResetFlow(t *testing.T) {
	o, _ := startedOrchestrator(t)
	o.GoNext()
	o.GoNext()

	o.ResetFlow()
	if o.CurrentStep() != StepBasicInfo {
		t.Errorf("CurrentStep = %d, want 0", o.CurrentStep())
	}
	if o.State() != StateSteps {
		t.Errorf("重置不应改变状态: %s", o.State())
	}
}

func TestOrchestrator_GoNextAfterTerminal(t *testing.T) {
	o, _ := startedOrchestrator(t)
	o.MarkSubmitted()

	if err := o.GoNext(); err == nil {
		t.Error("终态后 GoNext 应报错")
	}
}

// ==================== 完成度测试 ====================

func TestOrchestrator_CompletionMap(t *testing.T) {
	o, st := startedOrchestrator(t)

	if got := o.CompletionMap(); got != [3]bool{false, false, false} {
		t.Errorf("初始完成度 = %v", got)
	}

	st.SetRemoteID("r1")
	if got := o.CompletionMap(); got != [3]bool{true, false, false} {
		t.Errorf("完成度 = %v", got)
	}

	st.SetImages([]string{"a.jpg", "b.jpg"})
	if got := o.CompletionMap(); got[1] {
		t.Error("图片不足 3 张不算完成")
	}

	st.SetImages([]string{"a.jpg", "b.jpg", "c.jpg"})
	st.SetLocation(model.Location{Latitude: 1, Longitude: 1, Address: "x"})
	if got := o.CompletionMap(); got != [3]bool{true, true, true} {
		t.Errorf("完成度 = %v", got)
	}
}

// ==================== 终结测试 ====================

func TestOrchestrator_MarkSubmittedResetsStore(t *testing.T) {
	o, st := startedOrchestrator(t)
	st.SetRemoteID("r1")
	st.SetPaymentSettled(true)

	o.MarkSubmitted()

	if o.State() != StateSubmitted {
		t.Errorf("State = %s, want submitted", o.State())
	}
	draft := st.Snapshot()
	if draft.RemoteID != "" || draft.PaymentSettled {
		t.Errorf("提交后草稿应被清空: %+v", draft)
	}
}

func TestOrchestrator_AbandonResetsStore(t *testing.T) {
	o, st := startedOrchestrator(t)
	st.SetRemoteID("r1")

	o.Abandon(errors.New("用户退出"))

	if o.State() != StateAbandoned {
		t.Errorf("State = %s, want abandoned", o.State())
	}
	if st.Snapshot().RemoteID != "" {
		t.Error("放弃后草稿应被清空")
	}
}

func TestOrchestrator_AbandonAfterSubmitIsNoop(t *testing.T) {
	o, _ := startedOrchestrator(t)
	o.MarkSubmitted()

	o.Abandon(errors.New("迟到的放弃"))
	if o.State() != StateSubmitted {
		t.Errorf("State = %s, 提交后不应被放弃覆盖", o.State())
	}
}
