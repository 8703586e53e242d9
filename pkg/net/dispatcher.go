package net

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// Dispatcher 网络调度器 (通用组件)
// 面向开放平台 API 的出站请求统一从这里走，带有限次重试
type Dispatcher interface {
	// Send 发送 HTTP 请求
	Send(ctx context.Context, req *http.Request) (*http.Response, error)

	// SendMultipart 发送 multipart/form-data 请求 (图片批量上传)
	SendMultipart(ctx context.Context, req *MultipartRequest) (*http.Response, error)
}

// MultipartRequest 多部分请求
type MultipartRequest struct {
	URL     string
	Headers map[string]string
	// Files 表单文件列表，按切片顺序写入表单
	Files []FilePart
	// Fields 普通表单字段
	Fields map[string]string
}

// FilePart 单个上传文件
type FilePart struct {
	FieldName   string
	Path        string // 本地文件路径
	Filename    string
	ContentType string
}

// httpDispatcher 是 Dispatcher 接口的具体实现
// 注意：它是私有的，外部只能通过 NewDispatcher 获取接口
type httpDispatcher struct {
	client     *http.Client
	maxRetries int
}

var _ Dispatcher = (*httpDispatcher)(nil)

// NewDispatcher 创建调度器
// timeout 是单次请求的硬超时，调用方可再通过 ctx 提前取消
func NewDispatcher(timeout time.Duration) Dispatcher {
	tr := &http.Transport{
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}
	return &httpDispatcher{
		client: &http.Client{
			Transport: tr,
			Timeout:   timeout,
		},
		maxRetries: 2,
	}
}

// Send 发送 HTTP 请求 (自动处理瞬时失败重试)
// 只有传输层错误才重试；拿到响应即返回，状态码语义交给调用方
func (d *httpDispatcher) Send(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error

	for i := 0; i <= d.maxRetries; i++ {
		resp, err := d.client.Do(req.WithContext(ctx))
		if err == nil {
			return resp, nil
		}

		lastErr = err

		// 上下文已取消时立即放弃，不做无谓重试
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// 带 Body 的请求无法安全重发
		if req.Body != nil && req.GetBody == nil {
			break
		}
		if req.GetBody != nil {
			body, gerr := req.GetBody()
			if gerr != nil {
				break
			}
			req.Body = body
		}
	}

	return nil, fmt.Errorf("request failed after retries: %v", lastErr)
}

// SendMultipart 组装并发送 multipart 请求
// 文件在组装阶段才打开，全部读入表单后立即关闭
func (d *httpDispatcher) SendMultipart(ctx context.Context, mreq *MultipartRequest) (*http.Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, fp := range mreq.Files {
		if err := writeFilePart(writer, fp); err != nil {
			return nil, err
		}
	}

	for k, v := range mreq.Fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("写入表单字段 %s 失败: %v", k, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mreq.URL, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	for k, v := range mreq.Headers {
		req.Header.Set(k, v)
	}

	// multipart 请求体已完整缓冲，可安全重试
	body := buf.Bytes()
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	return d.Send(ctx, req)
}

// writeFilePart 把单个本地文件写入 multipart 表单
func writeFilePart(writer *multipart.Writer, fp FilePart) error {
	f, err := os.Open(fp.Path)
	if err != nil {
		return fmt.Errorf("打开上传文件失败: %v", err)
	}
	defer f.Close()

	h := make(map[string][]string)
	h["Content-Disposition"] = []string{
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fp.FieldName, fp.Filename),
	}
	h["Content-Type"] = []string{fp.ContentType}

	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("读取上传文件失败: %v", err)
	}
	return nil
}
