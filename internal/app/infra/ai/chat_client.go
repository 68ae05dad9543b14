package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpsetting"
)

// 客服回复的系统提示词
const systemPrompt = "你是一个闲鱼店铺的自动客服，用简短友好的中文回复买家消息，不要编造发货承诺。"

// ChatClient AI 回复生成客户端（实现 svreply.ReplyGenerator 接口）
// 走 OpenAI 兼容的 chat completions 协议，模型与接口地址取自系统配置
type ChatClient struct {
	settings rpsetting.SettingRepository
	client   *http.Client
}

// NewChatClient 创建 AI 客户端
func NewChatClient(settings rpsetting.SettingRepository, timeout time.Duration) *ChatClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ChatClient{
		settings: settings,
		client:   &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate 生成兜底回复
func (c *ChatClient) Generate(ctx context.Context, accountID int64, message string) (string, error) {
	settings, err := c.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	if settings.AIModel == "" || settings.AIBaseURL == "" {
		return "", fmt.Errorf("ai reply not configured")
	}

	payload, err := json.Marshal(&chatRequest{
		Model: settings.AIModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimSuffix(settings.AIBaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if settings.AIAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+settings.AIAPIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai endpoint returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode ai response failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai response has no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
