package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/services/svsync"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
)

// Client 闲鱼桥接服务客户端
// 登录态和页面协议由桥接端维护，这里只走它暴露的 REST 接口
// 实现 svsync.OrderSource 与 svfulfill.Dispatcher 接口
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient 创建桥接客户端
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// bridgeOrder 桥接端返回的订单结构
type bridgeOrder struct {
	OrderNo   string `json:"order_no"`
	BuyerID   string `json:"buyer_id"`
	ItemID    string `json:"item_id"`
	ItemTitle string `json:"item_title"`
	ItemImage string `json:"item_image"`
	Amount    int64  `json:"amount"`
	Quantity  int    `json:"quantity"`
}

// FetchNewOrders 拉取账号下新付款订单
func (c *Client) FetchNewOrders(ctx context.Context, accountID int64) ([]*svsync.MarketplaceOrder, error) {
	var raws []bridgeOrder
	path := fmt.Sprintf("/accounts/%d/orders/new", accountID)
	if err := c.get(ctx, path, &raws); err != nil {
		return nil, err
	}

	orders := make([]*svsync.MarketplaceOrder, 0, len(raws))
	for _, raw := range raws {
		orders = append(orders, &svsync.MarketplaceOrder{
			OrderNo:   raw.OrderNo,
			BuyerID:   raw.BuyerID,
			ItemID:    raw.ItemID,
			ItemTitle: raw.ItemTitle,
			ItemImage: raw.ItemImage,
			Amount:    raw.Amount,
			Quantity:  raw.Quantity,
		})
	}
	return orders, nil
}

// FetchLatestItemTitle 按商品ID取最新标题
func (c *Client) FetchLatestItemTitle(ctx context.Context, itemID string) (string, error) {
	var result struct {
		Title string `json:"title"`
	}
	if err := c.get(ctx, "/items/"+itemID, &result); err != nil {
		return "", err
	}
	return result.Title, nil
}

// deliverRequest 交付请求体
type deliverRequest struct {
	AccountID int64  `json:"account_id"`
	BuyerID   string `json:"buyer_id"`
	OrderNo   string `json:"order_no"`
	Content   string `json:"content"`
}

// Deliver 把卡密内容发给买家（实现 svfulfill.Dispatcher 接口）
func (c *Client) Deliver(ctx context.Context, order *etorder.Order, payload string) error {
	body := &deliverRequest{
		AccountID: order.AccountID,
		BuyerID:   order.BuyerID,
		OrderNo:   order.MarketplaceOrderNo,
		Content:   payload,
	}
	return c.post(ctx, "/messages/deliver", body)
}

// get 发起 GET 请求并解析 JSON 响应
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// post 发起 POST 请求
func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

// do 执行请求；网络与 5xx 错误归类为可重试的外部调用失败
func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errorx.ErrExternalCallFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", errorx.ErrExternalCallFailed, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: bridge returned status %d", errorx.ErrExternalCallFailed, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return errorx.NonRetriable(fmt.Sprintf("bridge returned status %d: %s", resp.StatusCode, string(body)))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode bridge response failed: %w", err)
		}
	}
	return nil
}
