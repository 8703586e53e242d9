package zufang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"zufang_post_v1_202601/pkg/net"
)

// APIError 开放平台返回的业务错误
// Error() 返回服务端原始 message，供上层按原文透出给用户
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API 异常 [%d]", e.StatusCode)
}

// Client 租房开放平台客户端
// JSON 接口走 resty，图片批量上传走 Dispatcher 的 multipart 通道
type Client struct {
	baseURL    string
	apiKey     string
	token      string
	http       *resty.Client
	oneshot    *resty.Client
	dispatcher net.Dispatcher
}

// NewClient 创建客户端 (未绑定用户令牌)
func NewClient(baseURL, apiKey string, timeout time.Duration, dispatcher net.Dispatcher) *Client {
	// 统一的网络请求入口：超时 + 重试 + 标准 UA
	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetHeader("User-Agent", "Zufang-Post-Go/1.0").
		SetHeader("x-api-key", apiKey)

	// 非幂等操作 (扣款/提交) 专用：传输层不自动重试。
	// 超时的请求服务端可能已经处理，重发会造成二次扣费，
	// 是否重试由上层按 paymentSettled 决定
	oneshotClient := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Zufang-Post-Go/1.0").
		SetHeader("x-api-key", apiKey)

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		http:       httpClient,
		oneshot:    oneshotClient,
		dispatcher: dispatcher,
	}
}

// WithToken 返回绑定了用户访问令牌的客户端副本
// 每个工作流会话持有自己的副本，底层 resty 连接复用
func (c *Client) WithToken(token string) *Client {
	bound := *c
	bound.token = token
	return &bound
}

// ==================== 房源草稿 ====================

// CreateDraftListing 创建草稿房源
func (c *Client) CreateDraftListing(ctx context.Context, fields *ListingFieldsReq) (*ListingResp, error) {
	var res ListingResp
	resp, err := c.request(ctx).
		SetBody(fields).
		SetResult(&res).
		Post(c.baseURL + "/listings")
	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %v", err)
	}
	if err := checkStatus(resp, http.StatusCreated, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateDraftListing 更新草稿房源字段
func (c *Client) UpdateDraftListing(ctx context.Context, id string, fields *ListingFieldsReq) (*ListingResp, error) {
	var res ListingResp
	resp, err := c.request(ctx).
		SetBody(fields).
		SetResult(&res).
		Put(c.baseURL + "/listings/" + id)
	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %v", err)
	}
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

// FetchListing 拉取房源记录 (编辑模式水合用)
func (c *Client) FetchListing(ctx context.Context, id string) (*ListingResp, error) {
	var res ListingResp
	resp, err := c.request(ctx).
		SetResult(&res).
		Get(c.baseURL + "/listings/" + id)
	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %v", err)
	}
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

// ==================== 图片上传 ====================

// UploadListingImages 批量上传房源图片
// replace 为 true 时服务端整体替换图片列表，响应携带权威的完整列表
func (c *Client) UploadListingImages(ctx context.Context, id string, files []net.FilePart, replace bool) (*UploadImagesResp, error) {
	mreq := &net.MultipartRequest{
		URL: c.baseURL + "/listings/" + id + "/images",
		Headers: map[string]string{
			"x-api-key":     c.apiKey,
			"Authorization": "Bearer " + c.token,
		},
		Files: files,
		Fields: map[string]string{
			"replace": strconv.FormatBool(replace),
		},
	}

	resp, err := c.dispatcher.SendMultipart(ctx, mreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, parseErrorBody(resp.StatusCode, respBody)
	}

	var res UploadImagesResp
	if err := json.Unmarshal(respBody, &res); err != nil {
		return nil, fmt.Errorf("解析上传响应失败: %v", err)
	}
	return &res, nil
}

// DownloadImage 下载一张已托管的图片到本地路径
// 走统一调度器并携带鉴权头，开放平台托管的私有图也能取到
func (c *Client) DownloadImage(ctx context.Context, url, destPath string) error {
	req, err := net.BuildGetRequest(ctx, url, c.apiKey, c.token)
	if err != nil {
		return err
	}

	resp, err := c.dispatcher.Send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("图片下载失败 [%d]: %s", resp.StatusCode, url)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("创建缓存文件失败: %v", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("写入缓存文件失败: %v", err)
	}
	return nil
}

// ==================== 位置 ====================

// UpdateListingLocation 保存房源坐标与展示地址
func (c *Client) UpdateListingLocation(ctx context.Context, id string, loc *LocationReq) (*LocationResp, error) {
	var res LocationResp
	resp, err := c.request(ctx).
		SetBody(loc).
		SetResult(&res).
		Put(c.baseURL + "/listings/" + id + "/location")
	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %v", err)
	}
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

// ==================== 钱包 ====================

// GetWalletBalance 查询当前余额
func (c *Client) GetWalletBalance(ctx context.Context) (*WalletBalanceResp, error) {
	var res WalletBalanceResp
	resp, err := c.request(ctx).
		SetResult(&res).
		Get(c.baseURL + "/wallet/balance")
	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %v", err)
	}
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

// DebitPostingFee 对指定房源扣除发布费
// 走不重试的通道，保证一次调用至多发出一次扣款请求
func (c *Client) DebitPostingFee(ctx context.Context, id string) (*DebitResp, error) {
	var res DebitResp
	resp, err := c.oneshotRequest(ctx).
		SetBody(&debitReq{ListingID: id}).
		SetResult(&res).
		Post(c.baseURL + "/wallet/debit-posting-fee")
	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %v", err)
	}
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

// ==================== 提交审核 ====================

// SubmitListingForReview 把草稿提交进审核队列
// 与扣款同样走不重试通道，重试由用户在确认页显式发起
func (c *Client) SubmitListingForReview(ctx context.Context, id string) (*SubmitResp, error) {
	var res SubmitResp
	resp, err := c.oneshotRequest(ctx).
		SetResult(&res).
		Post(c.baseURL + "/listings/" + id + "/submit")
	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %v", err)
	}
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

// ==================== 内部方法 ====================

// request 构造带鉴权与上下文的请求
func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.token)
}

// oneshotRequest 同 request，但走不带传输层重试的客户端
func (c *Client) oneshotRequest(ctx context.Context) *resty.Request {
	return c.oneshot.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.token)
}

// checkStatus 校验状态码，不在期望之内时解析服务端错误原文
func checkStatus(resp *resty.Response, want ...int) error {
	for _, w := range want {
		if resp.StatusCode() == w {
			return nil
		}
	}
	return parseErrorBody(resp.StatusCode(), resp.Body())
}

// parseErrorBody 解析错误响应体，解析不出时保留原始文本
func parseErrorBody(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		return &APIError{StatusCode: status, Code: eb.Code, Message: eb.Message}
	}
	return &APIError{StatusCode: status, Message: string(body)}
}
