package model

import (
	"errors"
	"math"
)

// ==================== 状态常量 ====================

const (
	// 工作流模式
	ModeCreate = "create"
	ModeEdit   = "edit"

	// 提交前最少图片数
	MinImages = 3

	// 坐标比较精度 (度)
	LocationEpsilon = 1e-6
)

// ==================== 草稿模型 ====================

// ListingFields 房源文本/数值字段
// 只保存最近一次远端写入成功的值，客户端不持有未确认数据
type ListingFields struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        int64   `json:"price"`
	Area         float64 `json:"area"`
	Address      string  `json:"address"`
	ContactPhone string  `json:"contact_phone"`
	Category     string  `json:"category"`
}

// Location 坐标 + 展示地址
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// Draft 发布中的房源草稿
// 远端记录的客户端镜像，整个编辑会话内 RemoteID 一经赋值不再变化
type Draft struct {
	RemoteID       string        `json:"remote_id"`
	Mode           string        `json:"mode"`
	Fields         ListingFields `json:"fields"`
	Images         []string      `json:"images"`
	Location       *Location     `json:"location"`
	PaymentSettled bool          `json:"payment_settled"`
}

// ==================== 辅助方法 ====================

// HasRemote 草稿是否已有远端标识
func (d *Draft) HasRemote() bool {
	return d.RemoteID != ""
}

// CanReachSubmit 检查是否满足进入位置/提交步骤的前置条件
func (d *Draft) CanReachSubmit() error {
	if d.RemoteID == "" {
		return errors.New("草稿尚未保存，无法提交")
	}
	if len(d.Images) < MinImages {
		return errors.New("至少需要上传 3 张图片")
	}
	return nil
}

// LocationEquals 判断位置是否与已保存值一致
// 坐标在 epsilon 内视为相同，地址做精确比较
func (d *Draft) LocationEquals(loc Location) bool {
	if d.Location == nil {
		return false
	}
	if math.Abs(d.Location.Latitude-loc.Latitude) > LocationEpsilon {
		return false
	}
	if math.Abs(d.Location.Longitude-loc.Longitude) > LocationEpsilon {
		return false
	}
	return d.Location.Address == loc.Address
}

// Clone 深拷贝，供读模型快照使用
func (d *Draft) Clone() Draft {
	out := *d
	out.Images = append([]string(nil), d.Images...)
	if d.Location != nil {
		loc := *d.Location
		out.Location = &loc
	}
	return out
}
