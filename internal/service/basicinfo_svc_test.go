package service

import (
	"context"
	"errors"
	"testing"

	"zufang_post_v1_202601/internal/store"
	"zufang_post_v1_202601/pkg/zufang"
)

// ==================== Mock 实现 ====================

type mockListingAPI struct {
	createFn    func(ctx context.Context, fields *zufang.ListingFieldsReq) (*zufang.ListingResp, error)
	updateFn    func(ctx context.Context, id string, fields *zufang.ListingFieldsReq) (*zufang.ListingResp, error)
	createCalls int
	updateCalls int
}

func (m *mockListingAPI) CreateDraftListing(ctx context.Context, fields *zufang.ListingFieldsReq) (*zufang.ListingResp, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, fields)
	}
	return &zufang.ListingResp{ID: "r1", Status: zufang.ListingStatusDraft}, nil
}

func (m *mockListingAPI) UpdateDraftListing(ctx context.Context, id string, fields *zufang.ListingFieldsReq) (*zufang.ListingResp, error) {
	m.updateCalls++
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return &zufang.ListingResp{ID: id, Status: zufang.ListingStatusDraft}, nil
}

type mockRecorder struct {
	events []string
}

func (m *mockRecorder) Record(ctx context.Context, sessionID, remoteID string, step int, event string, payload map[string]interface{}) {
	m.events = append(m.events, event)
}

// ==================== 测试辅助函数 ====================

func validInput() *BasicInfoInput {
	return &BasicInfoInput{
		Title:        "静安两室一厅近地铁",
		Description:  "房源位于静安区，两室一厅精装修，家电齐全，拎包入住，近地铁二号线，小区环境安静，周边配套成熟，欢迎随时预约看房。",
		Price:        "3,500",
		Area:         "68.5",
		Address:      "上海市静安区某某路 100 弄",
		ContactPhone: "13800000000",
		Category:     "整租",
	}
}

// ==================== 校验测试 ====================

func TestBasicInfoService_Validate(t *testing.T) {
	svc := NewBasicInfoService(&mockListingAPI{}, store.NewDraftStore(), nil, "s1")

	tests := []struct {
		name    string
		mutate  func(in *BasicInfoInput)
		wantKey string
	}{
		{"标题为空", func(in *BasicInfoInput) { in.Title = "  " }, "title"},
		{"描述过短", func(in *BasicInfoInput) { in.Description = "太短了" }, "description"},
		{"地址为空", func(in *BasicInfoInput) { in.Address = "" }, "address"},
		{"电话为空", func(in *BasicInfoInput) { in.ContactPhone = "" }, "contact_phone"},
		{"价格无数字", func(in *BasicInfoInput) { in.Price = "abc" }, "price"},
		{"价格为零", func(in *BasicInfoInput) { in.Price = "0" }, "price"},
		{"面积不是数字", func(in *BasicInfoInput) { in.Area = "x" }, "area"},
		{"面积过小", func(in *BasicInfoInput) { in.Area = "5" }, "area"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)

			_, errs := svc.Validate(in)
			if errs == nil {
				t.Fatal("应该返回校验错误")
			}
			if _, ok := errs[tt.wantKey]; !ok {
				t.Errorf("缺少字段 %s 的错误: %v", tt.wantKey, errs)
			}
		})
	}
}

func TestBasicInfoService_ValidateParsesFields(t *testing.T) {
	svc := NewBasicInfoService(&mockListingAPI{}, store.NewDraftStore(), nil, "s1")

	fields, errs := svc.Validate(validInput())
	if errs != nil {
		t.Fatalf("校验不应失败: %v", errs)
	}
	if fields.Price != 3500 {
		t.Errorf("Price = %d, want 3500 (千分位应被剥离)", fields.Price)
	}
	if fields.Area != 68.5 {
		t.Errorf("Area = %v, want 68.5", fields.Area)
	}
}

// ==================== 保存测试 ====================

func TestBasicInfoService_SaveCreatesThenAdoptsRemoteID(t *testing.T) {
	st := store.NewDraftStore()
	api := &mockListingAPI{}
	journal := &mockRecorder{}
	svc := NewBasicInfoService(api, st, journal, "s1")

	if err := svc.Save(context.Background(), validInput()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	draft := st.Snapshot()
	if draft.RemoteID != "r1" {
		t.Errorf("RemoteID = %s, want r1", draft.RemoteID)
	}
	if draft.Fields.Title != "静安两室一厅近地铁" {
		t.Errorf("Title = %s", draft.Fields.Title)
	}
	if api.createCalls != 1 || api.updateCalls != 0 {
		t.Errorf("create/update 调用次数 = %d/%d, want 1/0", api.createCalls, api.updateCalls)
	}
	if len(journal.events) != 1 {
		t.Errorf("留痕条数 = %d, want 1", len(journal.events))
	}
}

func TestBasicInfoService_SaveUpdatesWhenRemoteExists(t *testing.T) {
	st := store.NewDraftStore()
	st.SetRemoteID("r9")

	api := &mockListingAPI{
		updateFn: func(ctx context.Context, id string, fields *zufang.ListingFieldsReq) (*zufang.ListingResp, error) {
			if id != "r9" {
				t.Errorf("更新目标 = %s, want r9", id)
			}
			return &zufang.ListingResp{ID: id, Status: zufang.ListingStatusDraft}, nil
		},
	}
	svc := NewBasicInfoService(api, st, nil, "s1")

	if err := svc.Save(context.Background(), validInput()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if api.createCalls != 0 || api.updateCalls != 1 {
		t.Errorf("create/update 调用次数 = %d/%d, want 0/1", api.createCalls, api.updateCalls)
	}
	if st.Snapshot().RemoteID != "r9" {
		t.Error("更新路径不应改写 RemoteID")
	}
}

func TestBasicInfoService_ValidationFailureSkipsNetwork(t *testing.T) {
	api := &mockListingAPI{}
	st := store.NewDraftStore()
	svc := NewBasicInfoService(api, st, nil, "s1")

	in := validInput()
	in.Title = ""
	in.Area = "bad"

	err := svc.Save(context.Background(), in)

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Errorf("错误项数 = %d, want 2", len(verrs))
	}
	if api.createCalls != 0 || api.updateCalls != 0 {
		t.Error("校验失败时不应发起网络请求")
	}
}

func TestBasicInfoService_RemoteFailureLeavesStoreUntouched(t *testing.T) {
	st := store.NewDraftStore()
	api := &mockListingAPI{
		createFn: func(ctx context.Context, fields *zufang.ListingFieldsReq) (*zufang.ListingResp, error) {
			return nil, errors.New("网络超时")
		},
	}
	svc := NewBasicInfoService(api, st, &mockRecorder{}, "s1")

	if err := svc.Save(context.Background(), validInput()); err == nil {
		t.Fatal("应该返回远端错误")
	}

	draft := st.Snapshot()
	if draft.RemoteID != "" || draft.Fields.Title != "" {
		t.Errorf("失败时不应提交局部状态: %+v", draft)
	}
}
