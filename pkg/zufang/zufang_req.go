package zufang

// ListingFieldsReq 房源草稿字段 (创建/更新共用)
// 价格单位为分，由调用方在校验阶段完成解析
type ListingFieldsReq struct {
	Title        string  `json:"title" binding:"required,max=140"`
	Description  string  `json:"description" binding:"required"`
	Price        int64   `json:"price" binding:"required,gt=0"`
	Area         float64 `json:"area" binding:"required,gt=5"`
	Address      string  `json:"address" binding:"required"`
	ContactPhone string  `json:"contact_phone" binding:"required"`
	Category     string  `json:"category"`
}

// LocationReq 房源坐标 + 展示地址
type LocationReq struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// debitReq 发布费扣款请求体
type debitReq struct {
	ListingID string `json:"listing_id"`
}
