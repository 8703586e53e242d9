package store

import (
	"sync"

	"zufang_post_v1_202601/internal/model"
)

// Change 状态变更通知
type Change struct {
	Field string
}

// DraftStore 草稿状态仓
// 单一持有者的内存状态，所有写入都必须经过显式 setter。
// setter 只接受调用方已校验、且已被远端确认的完整数据，整段替换、不做合并。
// 工作流内部是严格串行的单写者，但服务层是多协程运行时，这里统一加锁。
type DraftStore struct {
	mu    sync.RWMutex
	draft model.Draft

	// 订阅管理 (编排器与活动步骤)
	subMu       sync.Mutex
	subscribers []chan Change
}

// NewDraftStore 创建空的草稿状态仓
func NewDraftStore() *DraftStore {
	return &DraftStore{}
}

// ==================== 读模型 ====================

// Snapshot 返回草稿的深拷贝快照
func (s *DraftStore) Snapshot() model.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft.Clone()
}

// ==================== Setter ====================

// SetBasicInfo 整段替换文本/数值字段
func (s *DraftStore) SetBasicInfo(fields model.ListingFields) {
	s.mu.Lock()
	s.draft.Fields = fields
	s.mu.Unlock()
	s.notify("fields")
}

// SetRemoteID 赋值远端标识
// 会话内只会在首次保存基础信息成功后调用一次
func (s *DraftStore) SetRemoteID(id string) {
	s.mu.Lock()
	s.draft.RemoteID = id
	s.mu.Unlock()
	s.notify("remote_id")
}

// SetImages 整体替换图片列表 (来自上传响应的权威列表)
func (s *DraftStore) SetImages(list []string) {
	s.mu.Lock()
	s.draft.Images = append([]string(nil), list...)
	s.mu.Unlock()
	s.notify("images")
}

// SetLocation 替换位置
func (s *DraftStore) SetLocation(loc model.Location) {
	s.mu.Lock()
	l := loc
	s.draft.Location = &l
	s.mu.Unlock()
	s.notify("location")
}

// SetMode 设置工作流模式，入口处调用一次
func (s *DraftStore) SetMode(mode string) {
	s.mu.Lock()
	s.draft.Mode = mode
	s.mu.Unlock()
	s.notify("mode")
}

// SetPaymentSettled 标记本次提交的发布费已结清
func (s *DraftStore) SetPaymentSettled(settled bool) {
	s.mu.Lock()
	s.draft.PaymentSettled = settled
	s.mu.Unlock()
	s.notify("payment_settled")
}

// Reset 恢复初始空状态
// 工作流结束或放弃后必须调用，防止过期的 RemoteID 泄漏进下一个会话
func (s *DraftStore) Reset() {
	s.mu.Lock()
	s.draft = model.Draft{}
	s.mu.Unlock()
	s.notify("reset")
}

// ==================== 订阅 ====================

// Subscribe 订阅状态变更
func (s *DraftStore) Subscribe() chan Change {
	ch := make(chan Change, 16)
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.subMu.Unlock()
	return ch
}

// Unsubscribe 取消订阅
func (s *DraftStore) Unsubscribe(ch chan Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// notify 非阻塞广播，消费不及时直接丢弃
func (s *DraftStore) notify(field string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- Change{Field: field}:
		default:
		}
	}
}
