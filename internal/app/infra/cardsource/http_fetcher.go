package cardsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// 响应体读取上限，防御异常上游
const maxResponseBytes = 64 * 1024

// HTTPFetcher api 类型卡密组的取卡客户端（实现 mdcard.PayloadFetcher 接口）
// 对组内配置的接口地址发起 GET，订单ID作为 order_id 参数传递
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher 创建取卡客户端
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// cardResponse JSON 响应格式
type cardResponse struct {
	Card string `json:"card"`
}

// Fetch 调用外部接口取一张卡
// 兼容两种响应：JSON {"card": "..."} 或纯文本卡密
func (f *HTTPFetcher) Fetch(ctx context.Context, endpoint, orderID string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid card source endpoint: %w", err)
	}
	query := u.Query()
	query.Set("order_id", orderID)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("card source request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("card source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read card source response failed: %w", err)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var parsed cardResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", fmt.Errorf("decode card source response failed: %w", err)
		}
		return strings.TrimSpace(parsed.Card), nil
	}
	return strings.TrimSpace(string(body)), nil
}
