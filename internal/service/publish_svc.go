package service

import (
	"context"
	"errors"

	"zufang_post_v1_202601/internal/model"
	"zufang_post_v1_202601/internal/store"
	"zufang_post_v1_202601/pkg/zufang"
)

// ==================== 外部服务依赖 ====================

// PublishAPI 位置保存与发布交易依赖的远端操作
type PublishAPI interface {
	UpdateListingLocation(ctx context.Context, id string, loc *zufang.LocationReq) (*zufang.LocationResp, error)
	GetWalletBalance(ctx context.Context) (*zufang.WalletBalanceResp, error)
	DebitPostingFee(ctx context.Context, id string) (*zufang.DebitResp, error)
	SubmitListingForReview(ctx context.Context, id string) (*zufang.SubmitResp, error)
}

// ==================== 错误 ====================

// ErrInsufficientBalance 余额不足，需引导充值，未发生扣款
var ErrInsufficientBalance = errors.New("余额不足，请先充值")

// ==================== 数据结构 ====================

// PublishQuote 发布报价，供用户确认
type PublishQuote struct {
	Balance        int64 `json:"balance"`
	Fee            int64 `json:"fee"`
	Remaining      int64 `json:"remaining"`
	NeedTopUp      bool  `json:"need_top_up"`
	PaymentSettled bool  `json:"payment_settled"`
}

// ==================== 服务实现 ====================

// PublishService 位置与发布交易步骤
type PublishService struct {
	api        PublishAPI
	store      *store.DraftStore
	journal    Recorder
	sessionID  string
	postingFee int64
}

// NewPublishService 创建发布服务
func NewPublishService(api PublishAPI, st *store.DraftStore, journal Recorder, sessionID string, postingFee int64) *PublishService {
	return &PublishService{
		api:        api,
		store:      st,
		journal:    journal,
		sessionID:  sessionID,
		postingFee: postingFee,
	}
}

// SaveLocation 幂等保存位置
// 与已保存值一致 (坐标 epsilon 内、地址全等) 时不发起网络写入
func (s *PublishService) SaveLocation(ctx context.Context, loc model.Location) error {
	draft := s.store.Snapshot()
	if err := draft.CanReachSubmit(); err != nil {
		return err
	}

	if draft.LocationEquals(loc) {
		return nil
	}

	resp, err := s.api.UpdateListingLocation(ctx, draft.RemoteID, &zufang.LocationReq{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Address:   loc.Address,
	})
	if err != nil {
		s.record(ctx, draft.RemoteID, model.EventRemoteError, map[string]interface{}{"op": "save_location", "error": err.Error()})
		return err
	}

	s.store.SetLocation(model.Location{
		Latitude:  resp.Latitude,
		Longitude: resp.Longitude,
		Address:   resp.Address,
	})
	s.record(ctx, draft.RemoteID, model.EventLocationSaved, nil)
	return nil
}

// Quote 查询发布报价
// 费用已结清时不再查余额，直接提示可提交
func (s *PublishService) Quote(ctx context.Context) (*PublishQuote, error) {
	draft := s.store.Snapshot()
	if err := draft.CanReachSubmit(); err != nil {
		return nil, err
	}

	if draft.PaymentSettled {
		return &PublishQuote{Fee: s.postingFee, PaymentSettled: true}, nil
	}

	balance, err := s.api.GetWalletBalance(ctx)
	if err != nil {
		return nil, err
	}

	quote := &PublishQuote{
		Balance:   balance.Balance,
		Fee:       s.postingFee,
		Remaining: balance.Balance - s.postingFee,
	}
	if balance.Balance < s.postingFee {
		quote.NeedTopUp = true
		quote.Remaining = 0
		s.record(ctx, draft.RemoteID, model.EventTopUpRequired, map[string]interface{}{"balance": balance.Balance, "fee": s.postingFee})
	}
	return quote, nil
}

// Publish 执行发布交易 (仅在用户显式确认后调用)
// 顺序：余额门禁 -> 扣款 -> 标记已结清 -> 提交审核。
// 扣款成功即刻写入 PaymentSettled，后续重试不会二次扣费；
// 提交失败不自动退款，用户重试时从提交步骤续跑
func (s *PublishService) Publish(ctx context.Context) error {
	draft := s.store.Snapshot()
	if err := draft.CanReachSubmit(); err != nil {
		return err
	}
	if draft.Location == nil {
		return errors.New("请先保存房源位置")
	}

	if !draft.PaymentSettled {
		balance, err := s.api.GetWalletBalance(ctx)
		if err != nil {
			return err
		}
		if balance.Balance < s.postingFee {
			s.record(ctx, draft.RemoteID, model.EventTopUpRequired, map[string]interface{}{"balance": balance.Balance, "fee": s.postingFee})
			return ErrInsufficientBalance
		}

		if _, err := s.api.DebitPostingFee(ctx, draft.RemoteID); err != nil {
			s.record(ctx, draft.RemoteID, model.EventRemoteError, map[string]interface{}{"op": "debit_fee", "error": err.Error()})
			return err
		}

		// 先落已结清标记再提交，确保提交失败后的重试不会重复扣款
		s.store.SetPaymentSettled(true)
		s.record(ctx, draft.RemoteID, model.EventFeeDebited, map[string]interface{}{"fee": s.postingFee})
	}

	if _, err := s.api.SubmitListingForReview(ctx, draft.RemoteID); err != nil {
		s.record(ctx, draft.RemoteID, model.EventRemoteError, map[string]interface{}{"op": "submit", "error": err.Error()})
		return err
	}

	s.record(ctx, draft.RemoteID, model.EventSubmitted, nil)
	return nil
}

// record 留痕，journal 未配置时静默跳过
func (s *PublishService) record(ctx context.Context, remoteID, event string, payload map[string]interface{}) {
	if s.journal != nil {
		s.journal.Record(ctx, s.sessionID, remoteID, 2, event, payload)
	}
}
