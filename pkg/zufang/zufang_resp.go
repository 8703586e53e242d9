package zufang

// 远端房源状态
const (
	ListingStatusDraft    = "draft"
	ListingStatusPending  = "pending"
	ListingStatusApproved = "approved"
	ListingStatusRejected = "rejected"
)

// ListingResp 房源记录
type ListingResp struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Price        int64         `json:"price"`
	Area         float64       `json:"area"`
	Address      string        `json:"address"`
	ContactPhone string        `json:"contact_phone"`
	Category     string        `json:"category"`
	Images       []string      `json:"images"`
	Location     *LocationResp `json:"location"`
}

// LocationResp 已保存的位置
type LocationResp struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// UploadImagesResp 图片上传结果，images 为服务端权威的完整图片列表
type UploadImagesResp struct {
	Images []string `json:"images"`
}

// WalletBalanceResp 钱包余额 (单位: 分)
type WalletBalanceResp struct {
	Balance int64 `json:"balance"`
}

// DebitResp 扣款结果，返回扣款后的余额
type DebitResp struct {
	Balance int64 `json:"balance"`
}

// SubmitResp 提交审核结果
type SubmitResp struct {
	Status string `json:"status"`
}

// errorBody 开放平台错误响应体
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
