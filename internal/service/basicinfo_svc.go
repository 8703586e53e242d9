package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"zufang_post_v1_202601/internal/model"
	"zufang_post_v1_202601/internal/store"
	"zufang_post_v1_202601/pkg/zufang"
)

// ==================== 外部服务依赖 ====================

// ListingAPI 房源草稿接口
type ListingAPI interface {
	CreateDraftListing(ctx context.Context, fields *zufang.ListingFieldsReq) (*zufang.ListingResp, error)
	UpdateDraftListing(ctx context.Context, id string, fields *zufang.ListingFieldsReq) (*zufang.ListingResp, error)
}

// Recorder 工作流事件留痕接口
type Recorder interface {
	Record(ctx context.Context, sessionID, remoteID string, step int, event string, payload map[string]interface{})
}

// ==================== 校验错误 ====================

// ValidationErrors 字段级校验错误，键为字段名
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	return fmt.Sprintf("字段校验失败 (%d 项)", len(e))
}

// ==================== 服务实现 ====================

// BasicInfoInput 基础信息原始输入 (UI 提交的未解析文本)
type BasicInfoInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	Area         string `json:"area"`
	Address      string `json:"address"`
	ContactPhone string `json:"contact_phone"`
	Category     string `json:"category"`
}

// BasicInfoService 基础信息步骤
// 先做全量客户端校验，校验不过不发网络请求；
// 远端写入成功后才把已校验的发送载荷采纳进状态仓
type BasicInfoService struct {
	api       ListingAPI
	store     *store.DraftStore
	journal   Recorder
	sessionID string
}

// NewBasicInfoService 创建基础信息服务
func NewBasicInfoService(api ListingAPI, st *store.DraftStore, journal Recorder, sessionID string) *BasicInfoService {
	return &BasicInfoService{
		api:       api,
		store:     st,
		journal:   journal,
		sessionID: sessionID,
	}
}

// Validate 校验原始输入，全部通过时返回解析后的字段
func (s *BasicInfoService) Validate(input *BasicInfoInput) (model.ListingFields, ValidationErrors) {
	errs := ValidationErrors{}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		errs["title"] = "标题不能为空"
	}

	if utf8.RuneCountInString(strings.TrimSpace(input.Description)) < 50 {
		errs["description"] = "描述不能少于 50 个字符"
	}

	address := strings.TrimSpace(input.Address)
	if address == "" {
		errs["address"] = "地址不能为空"
	}

	phone := strings.TrimSpace(input.ContactPhone)
	if phone == "" {
		errs["contact_phone"] = "联系电话不能为空"
	}

	price, err := parsePrice(input.Price)
	if err != nil {
		errs["price"] = "价格无效"
	}

	area, err := strconv.ParseFloat(strings.TrimSpace(input.Area), 64)
	if err != nil || area <= 5 {
		errs["area"] = "面积必须大于 5"
	}

	if len(errs) > 0 {
		return model.ListingFields{}, errs
	}

	return model.ListingFields{
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Price:        price,
		Area:         area,
		Address:      address,
		ContactPhone: phone,
		Category:     strings.TrimSpace(input.Category),
	}, nil
}

// Save 校验并持久化基础信息
// 无 RemoteID 时走创建，已有时走更新；成功后采纳返回的远端标识
// 与发送载荷本身 (不回读)，失败时不提交任何局部状态
func (s *BasicInfoService) Save(ctx context.Context, input *BasicInfoInput) error {
	fields, verrs := s.Validate(input)
	if verrs != nil {
		return verrs
	}

	req := &zufang.ListingFieldsReq{
		Title:        fields.Title,
		Description:  fields.Description,
		Price:        fields.Price,
		Area:         fields.Area,
		Address:      fields.Address,
		ContactPhone: fields.ContactPhone,
		Category:     fields.Category,
	}

	draft := s.store.Snapshot()

	var (
		resp *zufang.ListingResp
		err  error
	)
	if draft.RemoteID == "" {
		resp, err = s.api.CreateDraftListing(ctx, req)
	} else {
		resp, err = s.api.UpdateDraftListing(ctx, draft.RemoteID, req)
	}
	if err != nil {
		s.record(ctx, draft.RemoteID, model.EventRemoteError, map[string]interface{}{"op": "save_basic_info", "error": err.Error()})
		return err
	}

	// 状态仓信任自己发出的已校验载荷
	s.store.SetBasicInfo(fields)
	if draft.RemoteID == "" {
		s.store.SetRemoteID(resp.ID)
	}

	s.record(ctx, resp.ID, model.EventBasicInfoSaved, map[string]interface{}{"title": fields.Title})
	return nil
}

// record 留痕，journal 未配置时静默跳过
func (s *BasicInfoService) record(ctx context.Context, remoteID, event string, payload map[string]interface{}) {
	if s.journal != nil {
		s.journal.Record(ctx, s.sessionID, remoteID, 0, event, payload)
	}
}

// parsePrice 去掉所有非数字字符后解析为正整数价格
func parsePrice(raw string) (int64, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, fmt.Errorf("empty price")
	}
	price, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, err
	}
	if price <= 0 {
		return 0, fmt.Errorf("price must be positive")
	}
	return price, nil
}
