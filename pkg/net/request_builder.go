package net

import (
	"context"
	"io"
	"net/http"
)

// BuildAPIRequest 通用开放平台请求构建器
// 适用方：所有访问租房开放平台的服务
// 职责：统一封装鉴权头 (x-api-key, Authorization) 和标准头 (Content-Type)
// 注意：如果 Content-Type 不是 JSON (如 form-data)，调用方获取 req 后可手动覆盖 Header
func BuildAPIRequest(ctx context.Context, method, url string, body io.Reader, apiKey, accessToken string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return req, nil
}

// BuildGetRequest 构建 GET 请求
func BuildGetRequest(ctx context.Context, url string, apiKey, accessToken string) (*http.Request, error) {
	return BuildAPIRequest(ctx, http.MethodGet, url, nil, apiKey, accessToken)
}
